package pairing

import "testing"

func TestTopics(t *testing.T) {
	topics := NewTopics("037A2BABF19E")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pair add", topics.PairAdd(), "outlet/037A2BABF19E/pair/add"},
		{"pair remove", topics.PairRemove(), "outlet/037A2BABF19E/pair/remove"},
		{"set on", topics.SetOn(), "outlet/037A2BABF19E/on/set"},
		{"on state", topics.OnState(), "outlet/037A2BABF19E/on/state"},
		{"identify", topics.Identify(), "outlet/037A2BABF19E/identify"},
		{"accessory", topics.Accessory(), "outlet/037A2BABF19E/accessory"},
		{"status", topics.Status(), "outlet/037A2BABF19E/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

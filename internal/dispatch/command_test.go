package dispatch

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"Find", Find, false},
		{"play", Play, false},
		{" PAUSE ", Pause, false},
		{"Next", Next, false},
		{"Prev", Prev, false},
		{"previous", Prev, false},
		{"Vol +", VolumeUp, false},
		{"volume-down", VolumeDown, false},
		{"like", Like, false},
		{"", None, true},
		{"rewind", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCommand_StringRoundTrip(t *testing.T) {
	for c := Find; c <= Like; c++ {
		if !c.Valid() {
			t.Errorf("%d should be valid", c)
		}
		parsed, err := ParseCommand(c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseCommand(%q) = %v, %v", c.String(), parsed, err)
		}
	}

	if None.Valid() || Command(99).Valid() {
		t.Error("None and out-of-range commands must be invalid")
	}
}

func TestCommand_LatencyBound(t *testing.T) {
	if !Find.LatencyBound() {
		t.Error("Find should be latency bound")
	}
	if Play.LatencyBound() {
		t.Error("Play should not be latency bound")
	}
}

package hotkey

import "testing"

func TestParseControlPacketStart(t *testing.T) {
	ev, ok := parseControlPacket([]byte("START capslock"))
	if !ok {
		t.Fatal("expected packet to parse")
	}
	if ev.Key != "capslock" || ev.Type != KeyDown {
		t.Errorf("got %+v, want key=capslock type=KeyDown", ev)
	}
}

func TestParseControlPacketStop(t *testing.T) {
	ev, ok := parseControlPacket([]byte("stop capslock"))
	if !ok {
		t.Fatal("expected packet to parse")
	}
	if ev.Key != "capslock" || ev.Type != KeyUp {
		t.Errorf("got %+v, want key=capslock type=KeyUp", ev)
	}
}

func TestParseControlPacketRejectsUnknownVerb(t *testing.T) {
	if _, ok := parseControlPacket([]byte("PAUSE capslock")); ok {
		t.Error("expected unknown verb to be rejected")
	}
}

func TestParseControlPacketRejectsMalformed(t *testing.T) {
	cases := []string{"", "START", "START a b"}
	for _, c := range cases {
		if _, ok := parseControlPacket([]byte(c)); ok {
			t.Errorf("expected %q to be rejected", c)
		}
	}
}

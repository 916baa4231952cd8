package infrastructure

import "testing"

func TestVoiceJoinFlags(t *testing.T) {
	if voiceSelfMute {
		t.Error("expected the bot to join unmuted")
	}
	if voiceSelfDeaf {
		t.Error("expected the bot to join undeafened")
	}
}

package mc

import "testing"

func TestBucketFor(t *testing.T) {
	cases := []struct {
		protocol int
		want     Bucket
	}{
		{47, BucketLegacy},
		{476, BucketLegacy},
		{477, BucketModern},
		{758, BucketModern},
		{759, BucketCurrent},
		{762, BucketCurrent},
	}
	for _, c := range cases {
		got, err := BucketFor(c.protocol)
		if err != nil {
			t.Fatalf("protocol %d: %v", c.protocol, err)
		}
		if got != c.want {
			t.Errorf("protocol %d: bucket = %v, want %v", c.protocol, got, c.want)
		}
	}
}

func TestBucketForNegativeIsUnsupported(t *testing.T) {
	if _, err := BucketFor(-1); err != ErrUnsupportedProtocol {
		t.Fatalf("got %v, want ErrUnsupportedProtocol", err)
	}
}

func TestKeepAliveRoundTripPerBucket(t *testing.T) {
	for _, b := range []Bucket{BucketLegacy, BucketModern, BucketCurrent} {
		pk := ClientBoundKeepAlive{KeepAliveID: 42}.Marshal(b)
		if pk.ID != b.ids().clientBoundKeepAlive {
			t.Errorf("bucket %v: packet id = %x, want %x", b, pk.ID, b.ids().clientBoundKeepAlive)
		}

		sb := ServerBoundKeepAlive{KeepAliveID: 42}
		raw := MarshalPacket(b.ids().serverBoundKeepAlive, sb.KeepAliveID)
		got, err := UnmarshalServerBoundKeepAlive(b, raw)
		if err != nil {
			t.Fatal(err)
		}
		if got.KeepAliveID != 42 {
			t.Errorf("got %d, want 42", got.KeepAliveID)
		}
	}
}

func TestIsJoinGame(t *testing.T) {
	b := BucketCurrent
	pk := Packet{ID: b.ids().clientBoundJoinGame, Data: []byte{1, 2, 3}}
	if !IsJoinGame(b, pk) {
		t.Error("expected IsJoinGame to recognize the packet")
	}
	if IsJoinGame(b, Packet{ID: 0x01}) {
		t.Error("did not expect an unrelated packet ID to match")
	}
}

func TestRawPlayPacketCapturesCopy(t *testing.T) {
	data := []byte{1, 2, 3}
	raw := CaptureRawPlayPacket(Packet{ID: 0x24, Data: data})
	data[0] = 0xff
	if raw.Data[0] == 0xff {
		t.Error("CaptureRawPlayPacket must copy, not alias, the source data")
	}
}

package attestation

import "testing"

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"offline": Offline, " Normal ": Normal, "FULL": Full}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("paranoid"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestMode_ZeroValueIsNormal(t *testing.T) {
	var m Mode
	if m != Normal || m.String() != "normal" {
		t.Fatalf("zero Mode = %s, want normal", m)
	}
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for _, st := range []Status{Skipped, Verified, VerifiedOffline, Warning, Failed} {
		b, err := st.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		var got Status
		if err := got.UnmarshalText(b); err != nil || got != st {
			t.Fatalf("round trip of %s gave %s (%v)", st, got, err)
		}
	}
	var s Status
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestReport_IsTrusted(t *testing.T) {
	if !(Report{Status: Verified}).IsTrusted() {
		t.Fatalf("verified must be trusted")
	}
	if (Report{Status: VerifiedOffline}).IsTrusted() {
		t.Fatalf("offline verification needs confirmation unless configured otherwise")
	}
}

package challenge

import "testing"

func TestCatalogPerPurpose(t *testing.T) {
	catalog := Catalog{}

	cases := []struct {
		purpose Purpose
		want    []Channel
	}{
		{PurposeLoginMFA, []Channel{ChannelAuthenticatorApp, ChannelSMS, ChannelWhatsApp, ChannelEmail}},
		{PurposePhoneVerification, []Channel{ChannelSMS, ChannelWhatsApp}},
		{PurposeEmailVerification, []Channel{ChannelEmail}},
		{PurposeStepUpReauth, []Channel{ChannelPassword, ChannelAuthenticatorApp, ChannelSMS, ChannelWhatsApp, ChannelEmail}},
	}

	for _, tc := range cases {
		got := catalog.AvailableChannels(tc.purpose)
		if len(got) != len(tc.want) {
			t.Fatalf("%v: expected %v, got %v", tc.purpose, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%v: expected %v, got %v", tc.purpose, tc.want, got)
			}
		}
	}

	if got := catalog.AvailableChannels(Purpose(99)); got != nil {
		t.Fatalf("expected nil for unknown purpose, got %v", got)
	}
}

func TestCatalogOffers(t *testing.T) {
	catalog := Catalog{}
	if catalog.Offers(PurposeEmailVerification, ChannelSMS) {
		t.Fatal("email verification must not offer SMS")
	}
	if catalog.Offers(PurposeLoginMFA, ChannelPassword) {
		t.Fatal("login MFA must not offer the password channel")
	}
	if !catalog.Offers(PurposeStepUpReauth, ChannelPassword) {
		t.Fatal("step-up must offer the password channel")
	}
}

func TestCatalogDefaultChannel(t *testing.T) {
	catalog := Catalog{}
	if def, ok := catalog.DefaultChannel(PurposeLoginMFA); !ok || def != ChannelAuthenticatorApp {
		t.Fatalf("expected authenticator default for login, got %v (%v)", def, ok)
	}
	if def, ok := catalog.DefaultChannel(PurposeStepUpReauth); !ok || def != ChannelPassword {
		t.Fatalf("expected password default for step-up, got %v (%v)", def, ok)
	}
	if _, ok := catalog.DefaultChannel(Purpose(99)); ok {
		t.Fatal("expected no default for unknown purpose")
	}
}

func TestChannelResendability(t *testing.T) {
	if ChannelAuthenticatorApp.SupportsResend() {
		t.Fatal("authenticator codes are generated locally, never resent")
	}
	if ChannelPassword.SupportsResend() {
		t.Fatal("password entry has no delivery step")
	}
	for _, c := range []Channel{ChannelSMS, ChannelWhatsApp, ChannelEmail} {
		if !c.SupportsResend() {
			t.Fatalf("%v must support resend", c)
		}
		if !c.RequiresDispatch() {
			t.Fatalf("%v must require dispatch before entry", c)
		}
	}
}

func TestParseChannelRoundTrip(t *testing.T) {
	for c := Channel(0); c < channelCount; c++ {
		parsed, ok := ParseChannel(c.String())
		if !ok || parsed != c {
			t.Fatalf("round trip failed for %v", c)
		}
	}
	if _, ok := ParseChannel("pigeon"); ok {
		t.Fatal("expected unknown name to fail parsing")
	}
}

func TestChannelDisplayMetadata(t *testing.T) {
	if ChannelSMS.DisplayName() == "" || ChannelSMS.Help() == "" {
		t.Fatal("SMS metadata must be populated")
	}
	if Channel(99).String() != "unknown" {
		t.Fatalf("expected unknown name, got %q", Channel(99).String())
	}
	if Channel(99).DisplayName() != "" || Channel(99).Help() != "" {
		t.Fatal("out-of-range channels must have empty metadata")
	}
}

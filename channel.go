package challenge

// Channel is a method of receiving or entering a verification code, or, for
// step-up sessions, the password pseudo-channel.
type Channel uint8

const (
	// ChannelAuthenticatorApp is a code generated locally by the user's
	// authenticator app. It has no delivery step and no resend cooldown.
	ChannelAuthenticatorApp Channel = iota
	// ChannelSMS delivers codes by text message.
	ChannelSMS
	// ChannelWhatsApp delivers codes over WhatsApp.
	ChannelWhatsApp
	// ChannelEmail delivers codes by email.
	ChannelEmail
	// ChannelPassword is the step-up pseudo-channel: identity is confirmed
	// against the password collaborator instead of a dispatched code. Only
	// offered for PurposeStepUpReauth.
	ChannelPassword

	channelCount
)

// channelInfo is the static per-channel metadata. Defined once; never mutated.
type channelInfo struct {
	name       string
	display    string
	resendable bool
	help       string
}

var channelInfos = [channelCount]channelInfo{
	ChannelAuthenticatorApp: {
		name:       "authenticator_app",
		display:    "Authenticator app",
		resendable: false,
		help:       "Enter the 6-digit code shown in your authenticator app.",
	},
	ChannelSMS: {
		name:       "sms",
		display:    "Text message",
		resendable: true,
		help:       "We'll text a 6-digit code to your verified phone number.",
	},
	ChannelWhatsApp: {
		name:       "whatsapp",
		display:    "WhatsApp",
		resendable: true,
		help:       "We'll send a 6-digit code to your WhatsApp number.",
	},
	ChannelEmail: {
		name:       "email",
		display:    "Email",
		resendable: true,
		help:       "We'll email a 6-digit code to your verified address.",
	},
	ChannelPassword: {
		name:       "password",
		display:    "Password",
		resendable: false,
		help:       "Confirm it's you by entering your account password.",
	},
}

// String returns the stable wire name of the channel ("sms", "email", ...).
func (c Channel) String() string {
	if c >= channelCount {
		return "unknown"
	}
	return channelInfos[c].name
}

// DisplayName returns the user-facing channel label.
func (c Channel) DisplayName() string {
	if c >= channelCount {
		return ""
	}
	return channelInfos[c].display
}

// Help returns the user-facing help copy for the channel.
func (c Channel) Help() string {
	if c >= channelCount {
		return ""
	}
	return channelInfos[c].help
}

// SupportsResend reports whether the channel has a deliver/resend step.
// Authenticator-app and password entries are generated by the user, not
// dispatched.
func (c Channel) SupportsResend() bool {
	return c < channelCount && channelInfos[c].resendable
}

// RequiresDispatch reports whether a code must be delivered before entry can
// begin on this channel. Currently identical to SupportsResend but kept
// separate because the two concepts gate different transitions.
func (c Channel) RequiresDispatch() bool {
	return c.SupportsResend()
}

// ParseChannel maps a wire name back to its Channel. The second return is
// false for unknown names.
func ParseChannel(name string) (Channel, bool) {
	for c := Channel(0); c < channelCount; c++ {
		if channelInfos[c].name == name {
			return c, true
		}
	}
	return 0, false
}

// Catalog answers which channels are offered for a given purpose. It is pure
// lookup over static data; an empty answer means the caller asked for an
// unknown purpose.
type Catalog struct{}

var mfaChannels = []Channel{ChannelAuthenticatorApp, ChannelSMS, ChannelWhatsApp, ChannelEmail}

// AvailableChannels returns the ordered channel set for purpose. Step-up
// additionally offers the Password pseudo-channel ahead of the MFA channels.
func (Catalog) AvailableChannels(purpose Purpose) []Channel {
	switch purpose {
	case PurposeLoginMFA:
		out := make([]Channel, len(mfaChannels))
		copy(out, mfaChannels)
		return out
	case PurposePhoneVerification:
		return []Channel{ChannelSMS, ChannelWhatsApp}
	case PurposeEmailVerification:
		return []Channel{ChannelEmail}
	case PurposeStepUpReauth:
		out := make([]Channel, 0, len(mfaChannels)+1)
		out = append(out, ChannelPassword)
		out = append(out, mfaChannels...)
		return out
	default:
		return nil
	}
}

// Offers reports whether channel is available for purpose.
func (c Catalog) Offers(purpose Purpose, channel Channel) bool {
	for _, offered := range c.AvailableChannels(purpose) {
		if offered == channel {
			return true
		}
	}
	return false
}

// DefaultChannel returns the preselected channel for purpose: the first entry
// of the catalog order. Login MFA preselects the authenticator app.
func (c Catalog) DefaultChannel(purpose Purpose) (Channel, bool) {
	channels := c.AvailableChannels(purpose)
	if len(channels) == 0 {
		return 0, false
	}
	return channels[0], true
}

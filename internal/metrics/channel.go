package metrics

import "strings"

// Channel is the communication class a ticket is counted under.
type Channel int

const (
	ChannelEmail Channel = iota
	ChannelMessaging
)

func (c Channel) String() string {
	if c == ChannelMessaging {
		return "messaging"
	}
	return "email"
}

// DefaultMessagingChannels lists the helpdesk channel ids treated as messaging.
var DefaultMessagingChannels = []string{
	"chat",
	"native_messaging",
	"whatsapp",
	"facebook",
	"instagram_dm",
	"twitter",
	"sms",
	"line",
	"wechat",
	"telegram",
	"viber",
	"apple_business_chat",
}

// ChannelClassifier maps channel ids to a Channel. The zero value classifies
// everything as email.
type ChannelClassifier struct {
	messaging map[string]struct{}
}

func NewChannelClassifier(messaging []string) ChannelClassifier {
	set := make(map[string]struct{}, len(messaging))
	for _, ch := range messaging {
		ch = strings.TrimSpace(ch)
		if ch != "" {
			set[ch] = struct{}{}
		}
	}
	return ChannelClassifier{messaging: set}
}

// Classify returns ChannelMessaging for allow-listed ids and ChannelEmail for
// anything else, including unknown or empty ids.
func (c ChannelClassifier) Classify(channel string) Channel {
	if _, ok := c.messaging[channel]; ok {
		return ChannelMessaging
	}
	return ChannelEmail
}

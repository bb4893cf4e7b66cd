package useragent

import (
	"strings"
	"sync"

	"github.com/ua-parser/uap-go/uaparser"
)

// DeviceUnknown is stored when the parser cannot name a device model.
const DeviceUnknown = "N/A"

// Agent is the classified form of a viewer-agent label.
type Agent struct {
	OS             string `json:"os"`
	OSVersion      string `json:"os_version"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version"`
	Device         string `json:"device"`
	IsMobile       bool   `json:"is_mobile"`
	IsBot          bool   `json:"is_bot"`
}

var sharedParser = sync.OnceValue(uaparser.NewFromSaved)

// Classifier turns raw user-agent strings into Agent values. The zero value
// is not usable; call New.
type Classifier struct {
	parser *uaparser.Parser
}

// New returns a classifier backed by the bundled regex set. The compiled
// parser is shared across classifiers.
func New() *Classifier {
	return &Classifier{parser: sharedParser()}
}

// Classify parses label. Unparsable labels still produce an Agent with the
// parser's fallback families and Device set to DeviceUnknown.
func (c *Classifier) Classify(label string) Agent {
	agent := Agent{Device: DeviceUnknown}
	label = strings.TrimSpace(label)
	if label == "" {
		return agent
	}

	client := c.parser.Parse(label)
	var deviceFamily string
	if ua := client.UserAgent; ua != nil {
		agent.Browser = ua.Family
		agent.BrowserVersion = joinVersion(ua.Major, ua.Minor, ua.Patch)
	}
	if os := client.Os; os != nil {
		agent.OS = os.Family
		agent.OSVersion = joinVersion(os.Major, os.Minor, os.Patch, os.PatchMinor)
	}
	if dev := client.Device; dev != nil {
		deviceFamily = dev.Family
		if model := strings.TrimSpace(dev.Model); model != "" {
			agent.Device = model
		}
	}

	agent.IsBot = deviceFamily == "Spider"
	agent.IsMobile = !agent.IsBot && isMobile(label, agent.OS, agent.Browser, deviceFamily)
	return agent
}

// joinVersion concatenates the leading non-empty version parts with dots.
func joinVersion(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			break
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

package useragent_test

import (
	"strings"
	"testing"

	"vidstats/internal/useragent"
)

const (
	iphoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1"
	ipadSafari    = "Mozilla/5.0 (iPad; CPU OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1"
	desktopChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	googlebot     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestClassifyPhone(t *testing.T) {
	agent := useragent.New().Classify(iphoneSafari)
	if agent.OS != "iOS" {
		t.Fatalf("expected iOS, got %q", agent.OS)
	}
	if !strings.HasPrefix(agent.OSVersion, "16.5") {
		t.Fatalf("expected os version 16.5, got %q", agent.OSVersion)
	}
	if agent.Browser != "Mobile Safari" {
		t.Fatalf("expected Mobile Safari, got %q", agent.Browser)
	}
	if agent.Device != "iPhone" {
		t.Fatalf("expected iPhone model, got %q", agent.Device)
	}
	if !agent.IsMobile || agent.IsBot {
		t.Fatalf("expected mobile non-bot, got %#v", agent)
	}
}

func TestClassifyTabletIsNotMobile(t *testing.T) {
	agent := useragent.New().Classify(ipadSafari)
	if agent.IsMobile {
		t.Fatalf("expected tablet to be non-mobile, got %#v", agent)
	}
}

func TestClassifyDesktop(t *testing.T) {
	agent := useragent.New().Classify(desktopChrome)
	if agent.Browser != "Chrome" || !strings.HasPrefix(agent.BrowserVersion, "120") {
		t.Fatalf("unexpected browser %q %q", agent.Browser, agent.BrowserVersion)
	}
	if agent.OS != "Windows" {
		t.Fatalf("expected Windows, got %q", agent.OS)
	}
	if agent.Device != useragent.DeviceUnknown {
		t.Fatalf("expected unknown device, got %q", agent.Device)
	}
	if agent.IsMobile || agent.IsBot {
		t.Fatalf("expected desktop, got %#v", agent)
	}
}

func TestClassifyBot(t *testing.T) {
	agent := useragent.New().Classify(googlebot)
	if !agent.IsBot {
		t.Fatalf("expected bot, got %#v", agent)
	}
	if agent.IsMobile {
		t.Fatal("bots are never mobile")
	}
}

func TestClassifyBlankLabel(t *testing.T) {
	agent := useragent.New().Classify("   ")
	want := useragent.Agent{Device: useragent.DeviceUnknown}
	if agent != want {
		t.Fatalf("got %#v want %#v", agent, want)
	}
}

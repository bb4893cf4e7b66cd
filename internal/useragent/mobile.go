package useragent

import (
	"slices"
	"strings"
)

var (
	mobileDeviceFamilies = []string{
		"iPhone", "iPod", "iOS-Device", "Generic Smartphone",
		"Generic Feature Phone", "PlayStation Vita",
	}
	mobileBrowserFamilies = []string{
		"Mobile Safari", "Mobile Safari UI/WKWebView", "Chrome Mobile",
		"Chrome Mobile iOS", "Chrome Mobile WebView", "Firefox Mobile",
		"Firefox iOS", "Opera Mobile", "Opera Mini", "Samsung Internet",
		"UC Browser",
	}
	mobileOSFamilies = []string{
		"iOS", "Android", "Windows Phone", "Windows Phone OS",
		"Windows Mobile", "Windows CE", "Symbian OS", "Bada", "Maemo",
	}
	tabletDeviceFamilies = []string{
		"iPad", "Kindle", "Kindle Fire", "Kindle Fire HD", "Galaxy Tab",
		"BlackBerry Playbook", "Blackberry Playbook", "Xoom", "Dell Streak",
	}
	mobileMarkers = []string{"J2ME", "MIDP", "iPhone;", "Googlebot-Mobile"}
)

// isMobile reports phone-class devices. Tablets are not mobile.
func isMobile(label, osFamily, browserFamily, deviceFamily string) bool {
	if isTablet(label, osFamily, deviceFamily) {
		return false
	}
	if slices.Contains(mobileDeviceFamilies, deviceFamily) ||
		slices.Contains(mobileBrowserFamilies, browserFamily) ||
		slices.Contains(mobileOSFamilies, osFamily) {
		return true
	}
	return slices.ContainsFunc(mobileMarkers, func(marker string) bool {
		return strings.Contains(label, marker)
	})
}

func isTablet(label, osFamily, deviceFamily string) bool {
	if slices.Contains(tabletDeviceFamilies, deviceFamily) {
		return true
	}
	// Android tablets omit the "Mobile" token.
	if osFamily == "Android" && !strings.Contains(label, "Mobile") && !strings.Contains(label, "Opera Mobi") {
		return true
	}
	return strings.Contains(label, "Windows NT") && strings.Contains(label, "Touch") && !strings.Contains(label, "Phone")
}

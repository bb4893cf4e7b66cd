// Package useragent classifies viewer-agent labels into platform, browser,
// and device attributes using the uap-core regex set.
package useragent

// Package useragent turns a raw User-Agent header into the device, browser
// and OS fields the feature pipeline reads.
package useragent

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
	"go.uber.org/zap"
)

// Device classes
const (
	DeviceMobile = "mobile"
	DeviceTablet = "tablet"
	DevicePC     = "pc"
)

// OSOther is the family of a recognised browser on an unknown OS.
const OSOther = "Other"

// Info is the parsed header. A failed or empty parse leaves every field empty.
type Info struct {
	Device         string `json:"device"`
	BrowserFamily  string `json:"browser_family"`
	BrowserVersion string `json:"browser_version"`
	OSFamily       string `json:"os_family"`
	OSVersion      string `json:"os_version"`
	DeviceFamily   string `json:"device_family"`
}

// Parser never fails; malformed headers degrade to an empty Info.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser.
func NewParser(logger *zap.Logger) (*Parser, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Parser{logger: logger}, nil
}

// Parse extracts the fields of raw.
func (p *Parser) Parse(raw string) (info Info) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Info{}
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("user agent parse failed",
				zap.String("user_agent", raw),
				zap.Any("panic", r))
			info = Info{}
		}
	}()

	ua := useragent.New(raw)
	if ua.Bot() {
		name, version := ua.Browser()
		return Info{BrowserFamily: name, BrowserVersion: version, DeviceFamily: "Spider"}
	}

	os := ua.OSInfo()
	info.OSFamily = osFamily(ua.Platform(), os.Name)
	info.OSVersion = strings.ReplaceAll(os.Version, "_", ".")
	info.BrowserFamily, info.BrowserVersion = ua.Browser()
	info.Device = deviceClass(ua.Platform(), info.OSFamily, ua.Mobile())
	info.DeviceFamily = deviceFamily(ua.Platform(), info.Device)

	return info
}

// osFamily maps the library's OS names onto the families the shrinkage
// tables were trained with.
func osFamily(platform, name string) string {
	switch {
	case platform == "iPhone" || platform == "iPad" || platform == "iPod" ||
		strings.Contains(name, "iPhone OS") || name == "CPU OS":
		return "iOS"
	case name == "CrOS":
		return "Chrome OS"
	case name == "":
		return OSOther
	default:
		return name
	}
}

func deviceClass(platform, osFamily string, mobile bool) string {
	switch {
	case platform == "iPad":
		return DeviceTablet
	case osFamily == "Android" && !mobile:
		return DeviceTablet
	case mobile:
		return DeviceMobile
	case osFamily != "" && osFamily != OSOther:
		return DevicePC
	default:
		return ""
	}
}

func deviceFamily(platform, device string) string {
	switch {
	case platform == "iPhone" || platform == "iPad" || platform == "iPod":
		return platform
	case device == DeviceMobile:
		return "Generic Smartphone"
	case device == DeviceTablet:
		return "Generic Tablet"
	default:
		return "Other"
	}
}

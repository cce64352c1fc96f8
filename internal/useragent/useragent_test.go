package useragent

import "testing"

const (
	uaWindowsChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaWindowsEdge   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edge/120.0"
	uaIPhoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaAndroid       = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaMacFirefox    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaLinux         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Client
	}{
		{
			name: "windows chrome",
			ua:   uaWindowsChrome,
			want: Client{Device: "Windows PC", Browser: "Chrome", OS: "Windows 10/11", Type: "desktop"},
		},
		{
			name: "edge is not chrome",
			ua:   uaWindowsEdge,
			want: Client{Device: "Windows PC", Browser: "Edge", OS: "Windows 10/11", Type: "desktop"},
		},
		{
			name: "iphone safari",
			ua:   uaIPhoneSafari,
			want: Client{Device: "iPhone", Browser: "Safari", OS: "iOS", Type: "mobile"},
		},
		{
			name: "android chrome is not safari",
			ua:   uaAndroid,
			want: Client{Device: "Android Device", Browser: "Chrome", OS: "Android", Type: "mobile"},
		},
		{
			name: "mac firefox",
			ua:   uaMacFirefox,
			want: Client{Device: "Mac", Browser: "Firefox", OS: "macOS", Type: "desktop"},
		},
		{
			name: "linux desktop",
			ua:   uaLinux,
			want: Client{Device: "Linux PC", Browser: "Chrome", OS: "Linux", Type: "desktop"},
		},
		{
			name: "empty falls back to unknown",
			ua:   "",
			want: Client{Device: "Unknown Device", Browser: Unknown, OS: Unknown, Type: "desktop"},
		},
		{
			name: "garbage falls back to unknown",
			ua:   "curl/8.4.0",
			want: Client{Device: "Unknown Device", Browser: Unknown, OS: Unknown, Type: "desktop"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.ua)
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.ua, got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	c := Client{Device: "iPhone", Browser: "Safari", OS: "iOS", Type: "mobile"}
	if got, want := c.Describe(), "iPhone (Safari on iOS)"; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

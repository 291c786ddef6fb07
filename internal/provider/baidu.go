package provider

// BaiduProvider implements Provider for Baidu AI speech services
type BaiduProvider struct{}

func (p *BaiduProvider) Name() string {
	return ProviderBaidu
}

func (p *BaiduProvider) RequiresSecretKey() bool {
	return true
}

func (p *BaiduProvider) ValidateAPIKey(key string) bool {
	return len(key) >= 16
}

func (p *BaiduProvider) BaseURL() string {
	return "https://aip.baidubce.com"
}

func (p *BaiduProvider) Models(c Capability) []string {
	switch c {
	case Recognition:
		// dev_pid values: 80001 Mandarin (pro), 1537 Mandarin, 1737 English
		return []string{"80001", "1537", "1737"}
	case Synthesis:
		return []string{"text2audio"}
	default:
		return nil
	}
}

func (p *BaiduProvider) DefaultModel(c Capability) string {
	return firstOrEmpty(p.Models(c))
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

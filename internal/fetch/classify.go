package fetch

import (
	"net/url"
	"strings"

	"trendbrief/internal/core"
)

// urlRule describes one accepted shape of a direct-article URL.
type urlRule struct {
	hosts    []string // Exact host or parent domain
	prefixes []string // Accepted path prefixes
	suffixes []string // Accepted path suffixes
	query    string   // Required query parameter, if any
}

// articleRules is the per-source allow-list. Sources that publish search or
// listing links (Baidu, Weibo) only accept their article subdomains.
var articleRules = map[core.Source][]urlRule{
	core.SourceXinhua: {
		{hosts: []string{"news.cn", "xinhuanet.com"}, suffixes: []string{".htm", ".html"}},
	},
	core.SourceBaidu: {
		{hosts: []string{"baijiahao.baidu.com"}, prefixes: []string{"/s"}, query: "id"},
	},
	core.SourceWeibo: {
		{hosts: []string{"m.weibo.cn"}, prefixes: []string{"/detail/", "/status/"}},
	},
	core.SourceWeChat: {
		{hosts: []string{"mp.weixin.qq.com"}, prefixes: []string{"/s"}},
		{hosts: []string{"new.qq.com", "news.qq.com"}, prefixes: []string{"/rain/a/", "/omn/"}},
	},
	core.SourceThePaper: {
		{hosts: []string{"thepaper.cn"}, prefixes: []string{"/newsDetail_forward_"}},
	},
	core.SourceLadyMax: {
		{hosts: []string{"ladymax.cn"}, suffixes: []string{".html"}},
	},
}

// searchShapes are listing and search pages that never carry article text.
var searchShapes = []string{
	"baidu.com/s",
	"www.baidu.com/s",
	"m.baidu.com/s",
	"s.weibo.com",
	"weibo.cn/search",
	"m.weibo.cn/search",
	"weixin.sogou.com",
}

// IsArticleURL reports whether raw is a direct-article URL for src.
func IsArticleURL(src core.Source, raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if isSearchURL(u) {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, rule := range articleRules[src] {
		if rule.matches(host, u) {
			return true
		}
	}
	return false
}

// isSearchURL reports whether u is a known search or listing page.
func isSearchURL(u *url.URL) bool {
	lower := strings.ToLower(u.Host + u.RequestURI())
	for _, shape := range searchShapes {
		if strings.HasPrefix(lower, shape) {
			return true
		}
	}
	return false
}

func (r urlRule) matches(host string, u *url.URL) bool {
	hostOK := false
	for _, h := range r.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			hostOK = true
			break
		}
	}
	if !hostOK {
		return false
	}
	if r.query != "" && u.Query().Get(r.query) == "" {
		return false
	}

	path := u.Path
	if len(r.prefixes) == 0 && len(r.suffixes) == 0 {
		return true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range r.suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

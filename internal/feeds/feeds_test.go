package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>新华网 要闻</title>
  <link>https://www.news.cn/</link>
  <item>
    <title>国务院常务会议部署防汛工作</title>
    <link>https://www.news.cn/politics/20250301/abc.html</link>
    <description><![CDATA[<p>会议要求<b>做好</b>防汛准备</p>]]></description>
    <pubDate>Sat, 01 Mar 2025 08:00:00 +0800</pubDate>
  </item>
  <item>
    <title>春运客流创新高</title>
    <link>https://www.news.cn/local/20250301/def.html</link>
  </item>
</channel>
</rss>`

const sampleAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>澎湃新闻</title>
  <entry>
    <title>台风登陆浙江</title>
    <link href="https://www.thepaper.cn/newsDetail_forward_1"/>
    <summary>强风暴雨影响沿海</summary>
    <updated>2025-03-01T10:00:00Z</updated>
  </entry>
</feed>`

func TestParseRSS(t *testing.T) {
	r := NewReader(time.Second)
	records, err := r.Parse(strings.NewReader(sampleRSS))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first["title"] != "国务院常务会议部署防汛工作" {
		t.Errorf("Unexpected title %v", first["title"])
	}
	if first["rank"] != float64(1) || records[1]["rank"] != float64(2) {
		t.Errorf("Expected positional ranks, got %v and %v", first["rank"], records[1]["rank"])
	}
	if first["description"] != "会议要求做好防汛准备" {
		t.Errorf("Expected markup stripped, got %q", first["description"])
	}
	if first["published_at"] != "2025-03-01T00:00:00Z" {
		t.Errorf("Expected UTC published time, got %v", first["published_at"])
	}
	if _, ok := records[1]["description"]; ok {
		t.Error("Empty description should be omitted")
	}
}

func TestParseAtomFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thepaper.atom")
	if err := os.WriteFile(path, []byte(sampleAtom), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := NewReader(time.Second).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0]["url"] != "https://www.thepaper.cn/newsDetail_forward_1" {
		t.Errorf("Unexpected url %v", records[0]["url"])
	}
	if records[0]["published_at"] != "2025-03-01T10:00:00Z" {
		t.Errorf("Expected updated time as fallback, got %v", records[0]["published_at"])
	}
}

func TestReadRemoteFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	r := NewReader(time.Second)
	records, err := r.Read(context.Background(), srv.URL+"/feed")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}

	if _, err := r.Read(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("Expected error for 404 feed")
	}
}

func TestReadInvalid(t *testing.T) {
	r := NewReader(time.Second)
	if _, err := r.Parse(strings.NewReader("not a feed")); err == nil {
		t.Error("Expected parse error")
	}
	if _, err := r.Read(context.Background(), filepath.Join(t.TempDir(), "none.xml")); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestIsFeedLocation(t *testing.T) {
	tests := map[string]bool{
		"data/xinhua.xml":         true,
		"data/feed.RSS":           true,
		"data/feed.atom":          true,
		"https://example.com/rss": true,
		"data/weibo_hot.json":     false,
		"snapshots/baidu_top":     false,
	}
	for loc, want := range tests {
		if got := IsFeedLocation(loc); got != want {
			t.Errorf("IsFeedLocation(%q) = %v, want %v", loc, got, want)
		}
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain  text", "plain text"},
		{"<p>会议要求<b>做好</b>防汛准备</p>", "会议要求做好防汛准备"},
		{"Markets&nbsp;rally &amp; close higher", "Markets rally & close higher"},
		{"<p>first</p><p>second</p>", "first second"},
		{"line one<br>line two", "line one line two"},
		{"<div>text<script>alert(1)</script></div>", "text"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := stripTags(tt.input); got != tt.want {
			t.Errorf("stripTags(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

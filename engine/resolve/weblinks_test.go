package resolve

import "testing"

func TestCategorizeLinks(t *testing.T) {
	links := []string{
		"https://www.radiohead.com/tour",
		"https://open.spotify.com/artist/abc",
		"https://www.youtube.com/watch?v=xyz",
		"https://twitter.com/radiohead",
		"https://example.org/article",
	}
	src := categorizeLinks(links, "Radiohead")

	if len(src.Official) != 1 || src.Official[0] != links[0] {
		t.Errorf("Official = %v", src.Official)
	}
	if len(src.Music) != 1 {
		t.Errorf("Music = %v", src.Music)
	}
	if len(src.Video) != 1 {
		t.Errorf("Video = %v", src.Video)
	}
	if len(src.Social) != 1 {
		t.Errorf("Social = %v", src.Social)
	}
	if len(src.Other) != 1 {
		t.Errorf("Other = %v", src.Other)
	}
}

func TestCategorizeLinks_OfficialMatchIgnoresPunctuation(t *testing.T) {
	src := categorizeLinks([]string{"https://daft-punk.com"}, "Daft Punk")
	if len(src.Official) != 1 {
		t.Errorf("dashed host should match normalized name, got %+v", src)
	}
}

func TestCategorizeLinks_SubdomainMatches(t *testing.T) {
	src := categorizeLinks([]string{"https://music.youtube.com/channel/x"}, "Someone")
	if len(src.Video) != 1 {
		t.Errorf("subdomain should match, got %+v", src)
	}
}

func TestCategorizeLinks_LookalikeDomainIsNotMatched(t *testing.T) {
	src := categorizeLinks([]string{"https://notyoutube.com/x"}, "Someone")
	if len(src.Video) != 0 || len(src.Other) != 1 {
		t.Errorf("lookalike host must not match, got %+v", src)
	}
}

func TestCategorizeLinks_UnparseableLinkSkipped(t *testing.T) {
	src := categorizeLinks([]string{"://bad"}, "Someone")
	if !src.Empty() {
		t.Errorf("unparseable link should be dropped, got %+v", src)
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("https://www.Example.COM/path"); got != "example.com" {
		t.Errorf("hostOf = %q", got)
	}
}

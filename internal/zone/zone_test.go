package zone

import "testing"

func testClassifier() *Classifier {
	return New(Options{
		HookEntry:        "/data/hooks/tool-pre-use",
		SelfFiles:        []string{"/data/policy/catalogue.json"},
		DevelopmentPaths: []string{"/home", "/root"},
		ConfigPaths:      []string{"/etc"},
		SystemPaths:      []string{"/bin", "/usr/bin"},
		SensitivePaths:   []string{"/root/.ssh"},
	})
}

func TestClassifyPrecedence(t *testing.T) {
	c := testClassifier()

	cases := []struct {
		path string
		want Zone
	}{
		{"/root/.ssh/id_rsa", Sensitive},
		{"/etc/passwd", Config},
		{"/bin/bash", System},
		{"/root/projects/app", Development},
		{"/data/policy/catalogue.json", WowSelf},
		{"/data/policy/catalogue.json.bak", WowSelf},
		{"/data/hooks/tool-pre-use", WowSelf},
		{"/tmp/scratch.txt", General},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.path); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsHookEntrypointMatchesVariants(t *testing.T) {
	c := testClassifier()
	for _, suffix := range []string{"", ".bak", ".disabled", ".dev"} {
		path := "/data/hooks/tool-pre-use" + suffix
		if !c.IsHookEntrypoint(path) {
			t.Errorf("expected %q to be recognised as the hook entrypoint", path)
		}
	}
	if c.IsHookEntrypoint("/data/hooks/other-tool") {
		t.Error("unrelated file should not match hook entrypoint")
	}
}

func TestTierIsTotalFunction(t *testing.T) {
	want := map[Zone]int{
		General: 0, Development: 1, Config: 2, Sensitive: 2, System: 2, WowSelf: 2,
	}
	for z, tier := range want {
		if got := z.Tier(); got != tier {
			t.Errorf("%v.Tier() = %d, want %d", z, got, tier)
		}
	}
}

func TestPrefixDoesNotMatchSimilarlyNamedSibling(t *testing.T) {
	c := testClassifier()
	if got := c.Classify("/etcetera/file"); got != General {
		t.Errorf("Classify(/etcetera/file) = %v, want General (no false prefix match)", got)
	}
}

func TestCanonicalizeCleansDotDot(t *testing.T) {
	got := Canonicalize("/root/projects/../projects/app/./file.go")
	want := "/root/projects/app/file.go"
	if got != want {
		t.Errorf("Canonicalize = %q, want %q", got, want)
	}
}

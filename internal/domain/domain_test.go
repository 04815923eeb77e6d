package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeRoundTrip(t *testing.T) {
	inputs := []string{
		"https://d/p",
		"http://D:443/p/",
		"d",
	}
	var hosts []string
	for _, in := range inputs {
		h, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		hosts = append(hosts, h)
	}
	for i := 1; i < len(hosts); i++ {
		if hosts[i] != hosts[0] {
			t.Errorf("Normalize(%q) = %q, want %q (same as %q)", inputs[i], hosts[i], hosts[0], inputs[0])
		}
	}
}

func TestNormalizeRejectsOversizeHost(t *testing.T) {
	long := ""
	for i := 0; i < 254; i++ {
		long += "a"
	}
	if _, err := Normalize(long); err == nil {
		t.Fatal("expected error for 254-char host")
	}
	ok253 := long[:253]
	if _, err := Normalize(ok253); err != nil {
		t.Fatalf("253-char host should be accepted: %v", err)
	}
}

func TestWildcardMatchSemantics(t *testing.T) {
	l := ParseList([]byte("*.example.com\n"))
	if !l.Contains("a.example.com") {
		t.Error("a.example.com should match *.example.com")
	}
	if !l.Contains("x.y.example.com") {
		t.Error("x.y.example.com should match *.example.com")
	}
	if l.Contains("example.com") {
		t.Error("example.com itself should NOT match *.example.com alone")
	}
}

func TestCriticalTierCannotBeOverridden(t *testing.T) {
	cat := New()
	cat.SetUserSafe(ParseList([]byte("localhost\n")))

	decision, _, err := cat.Validate("localhost")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if decision != Blocked {
		t.Fatalf("decision = %v, want Blocked (TIER 1 cannot be overridden)", decision)
	}
}

func TestCloudMetadataIsBlocked(t *testing.T) {
	cat := New()
	decision, _, err := cat.Validate("http://169.254.169.254/latest/meta-data/")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if decision != Blocked {
		t.Fatalf("decision = %v, want Blocked for cloud metadata endpoint", decision)
	}
}

func TestUserBlockedWinsOverSystemSafeOnTie(t *testing.T) {
	cat := New()
	cat.SetSystemSafe(ParseList([]byte("evil.example.com\n")))
	cat.SetUserBlocked(ParseList([]byte("evil.example.com\n")))

	decision, _, err := cat.Validate("evil.example.com")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if decision != Blocked {
		t.Fatalf("decision = %v, want Blocked (user-block wins ties)", decision)
	}
}

func TestUnknownDomainYieldsUnknown(t *testing.T) {
	cat := New()
	decision, _, err := cat.Validate("totally-unrecognised.example")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if decision != Unknown {
		t.Fatalf("decision = %v, want Unknown", decision)
	}
}

func TestLoadFileRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.conf")
	if err := os.WriteFile(real, []byte("safe.example.com\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	link := filepath.Join(dir, "linked.conf")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}
	if _, err := LoadFile(link); err == nil {
		t.Fatal("expected error loading a symlinked config file")
	}
}

func TestLoadFileRejectsPathTraversal(t *testing.T) {
	if _, err := LoadFile("/etc/domains/../../secret.conf"); err == nil {
		t.Fatal("expected error for path containing ..")
	}
}

func TestParseListSkipsCommentsAndBlankLines(t *testing.T) {
	l := ParseList([]byte("# a comment\n\nexample.com\n  \n*.trusted.org\n"))
	if !l.Contains("example.com") {
		t.Error("expected example.com in list")
	}
	if !l.Contains("a.trusted.org") {
		t.Error("expected a.trusted.org to match wildcard")
	}
}

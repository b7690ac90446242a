package cert

import "testing"

func TestGenerate(t *testing.T) {
	c, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(c.Certificate) == 0 {
		t.Fatal("Generate: empty certificate")
	}
	if c.PrivateKey == nil {
		t.Fatal("Generate: nil private key")
	}
	if c.Hostname == "" {
		t.Fatal("Generate: empty hostname")
	}

	parsed, err := ParsePeerCertificate(c.Certificate)
	if err != nil {
		t.Fatalf("ParsePeerCertificate: %v", err)
	}
	if parsed.Subject.CommonName != c.Hostname {
		t.Errorf("Subject.CommonName = %q, want %q", parsed.Subject.CommonName, c.Hostname)
	}
}

func TestGenerateIsFreshEachTime(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(a.Certificate) == string(b.Certificate) {
		t.Error("two Generate() calls produced identical certificates")
	}
}

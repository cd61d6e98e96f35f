package governance

import (
	"context"
	"testing"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	// Test Allow (Default)
	req1 := Request{Source: "web", Reference: "paper.pdf", Head: []byte("%PDF-1.7\n")}
	res1, err := engine.Evaluate(ctx, req1)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res1.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow, got %s", res1.Effect)
	}

	// Test Deny source
	engine.DenySource("telegram")
	res2, err := engine.Evaluate(ctx, Request{Source: "telegram"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res2.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res2.Effect)
	}
}

func TestDefaultPolicyEngine_Limits(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	engine.MaxBytes = 1024
	if err := engine.DenyReferences(`^file://`); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want Effect
	}{
		{"too large", Request{Source: "web", Size: 4096}, EffectDeny},
		{"not a pdf", Request{Source: "web", Size: 10, Head: []byte("<html>")}, EffectDeny},
		{"denied reference", Request{Source: "cli", Reference: "file:///etc/passwd"}, EffectDeny},
		{"unknown head is allowed", Request{Source: "cli", Reference: "paper.pdf"}, EffectAllow},
		{"within limits", Request{Source: "web", Size: 100, Head: []byte("%PDF-1.4")}, EffectAllow},
	}
	for _, tt := range tests {
		res, err := engine.Evaluate(ctx, tt.req)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if res.Effect != tt.want {
			t.Errorf("%s: expected %s, got %s (%s)", tt.name, tt.want, res.Effect, res.Reason)
		}
	}

	if err := engine.DenyReferences(`(`); err == nil {
		t.Error("expected invalid pattern error")
	}
}

func TestDefaultPolicyEngine_DenyPrivateHosts(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	engine.DenyPrivateHosts()
	ctx := context.Background()

	denied := []string{
		"http://localhost:8501/admin",
		"http://127.0.0.1/paper.pdf",
		"https://169.254.169.254/latest/meta-data/",
		"http://[::1]:9000/",
		"http://10.0.0.7",
		"http://192.168.1.20/x.pdf",
		"http://172.16.0.1?x=1",
		"HTTP://user@LOCALHOST/",
	}
	for _, ref := range denied {
		res, err := engine.Evaluate(ctx, Request{Source: "telegram", Reference: ref})
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if res.Effect != EffectDeny {
			t.Errorf("%s: expected EffectDeny, got %s", ref, res.Effect)
		}
	}

	allowed := []string{
		"https://arxiv.org/pdf/1706.03762",
		"https://localhost.example.org/paper.pdf",
		"http://172.32.0.1/paper.pdf",
		"paper.pdf",
	}
	for _, ref := range allowed {
		res, err := engine.Evaluate(ctx, Request{Source: "telegram", Reference: ref})
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if res.Effect != EffectAllow {
			t.Errorf("%s: expected EffectAllow, got %s (%s)", ref, res.Effect, res.Reason)
		}
	}
}

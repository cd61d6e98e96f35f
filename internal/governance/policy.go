package governance

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes a document a front end is about to summarize.
type Request struct {
	Source    string // cli, web, telegram
	Reference string // path, URL or uploaded file name
	Size      int64  // bytes, 0 when unknown
	Head      []byte // leading bytes of the document, if available
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine decides whether a document may be processed.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

var pdfMagic = []byte("%PDF-")

// PrivateHostPattern matches http(s) references to loopback, link-local
// and RFC 1918 hosts.
const PrivateHostPattern = `(?i)^https?://([^/@]*@)?(localhost|127\.\d+\.\d+\.\d+|0\.0\.0\.0|\[::1?\]|169\.254\.\d+\.\d+|\[fe80:[^\]]*\]|10\.\d+\.\d+\.\d+|192\.168\.\d+\.\d+|172\.(1[6-9]|2\d|3[01])\.\d+\.\d+)(:\d+)?([/?#]|$)`

// DefaultPolicyEngine is a basic implementation of PolicyEngine.
type DefaultPolicyEngine struct {
	DeniedSources map[string]bool
	DeniedRegex   []*regexp.Regexp
	MaxBytes      int64
	RequirePDF    bool // uploads must start with the PDF header
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedSources: make(map[string]bool),
		DeniedRegex:   make([]*regexp.Regexp, 0),
		RequirePDF:    true,
	}
}

func (e *DefaultPolicyEngine) DenySource(name string) {
	e.DeniedSources[name] = true
}

func (e *DefaultPolicyEngine) DenyReferences(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

// DenyPrivateHosts refuses URLs that point into the local network.
func (e *DefaultPolicyEngine) DenyPrivateHosts() {
	e.DeniedRegex = append(e.DeniedRegex, regexp.MustCompile(PrivateHostPattern))
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.DeniedSources[req.Source] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Source '%s' is disabled by policy", req.Source),
		}, nil
	}

	for _, re := range e.DeniedRegex {
		if re.MatchString(req.Reference) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Reference matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	if e.MaxBytes > 0 && req.Size > e.MaxBytes {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Document is %d bytes, limit is %d", req.Size, e.MaxBytes),
		}, nil
	}

	if e.RequirePDF && req.Head != nil && !bytes.HasPrefix(req.Head, pdfMagic) {
		return Result{
			Effect: EffectDeny,
			Reason: "Document is not a PDF",
		}, nil
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}

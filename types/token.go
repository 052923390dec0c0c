package types

// Token is the invocation pipeline's internal carrier. It threads an
// Invocation through the fixed S1-S6 stages alongside three monotone
// gate flags; once InvRes is set to a non-empty failure record, later
// stages refuse to advance it. This is a hand-rolled sum-type substitute:
// the equivalent in a language with real sum types is
// Result<Next, InvocationResponse> threaded through the stage chain.
type Token struct {
	IID          string
	Invocation   *Invocation
	InvRes       *InvocationResponse
	AntiForgery  bool
	SourceTarget bool
	Policy       bool
}

// NewToken seeds a fresh pipeline token for the given invocation id.
func NewToken(iid string, inv *Invocation) *Token {
	return &Token{IID: iid, Invocation: inv}
}

// Failed reports whether a prior stage has already produced a terminal
// response. Stages check this before doing any work.
func (t *Token) Failed() bool {
	return t.InvRes.Failed()
}

// Fail sets the token's terminal response, short-circuiting all
// subsequent stages. A stage that has already failed is left untouched:
// the first failure wins.
func (t *Token) Fail(instanceID, reason string) {
	if t.Failed() {
		return
	}
	t.InvRes = NewFailureResponse(t.IID, instanceID, reason)
}

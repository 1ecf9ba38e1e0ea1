package core

// Report is a single validation or transformation finding.
type Report struct {
	Error   bool
	Message string
}

// Reporter accumulates Reports without aborting a pass.  The drivers
// collect every problem in a full traversal before deciding whether to
// abort, so a user sees all of their mistakes in one shot.
type Reporter struct {
	reports []Report
	errors  int
}

// NewReporter makes an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{reports: make([]Report, 0, 8)}
}

// Error records an error-severity report.
func (r *Reporter) Error(msg string) {
	r.reports = append(r.reports, Report{Error: true, Message: msg})
	r.errors++
}

// Warn records a warning-severity report.
func (r *Reporter) Warn(msg string) {
	r.reports = append(r.reports, Report{Error: false, Message: msg})
}

// Reports returns everything recorded so far.
func (r *Reporter) Reports() []Report {
	return r.reports
}

// NumErrors returns the count of error-severity reports.
func (r *Reporter) NumErrors() int {
	return r.errors
}

// NodeReporter scopes a Reporter to a node, prefixing messages with
// the node's s-expression so a finding can be tied back to the rule
// text that produced it.
type NodeReporter struct {
	r    *Reporter
	node *Node
}

// NewNodeReporter scopes r to node.
func NewNodeReporter(r *Reporter, node *Node) *NodeReporter {
	return &NodeReporter{r: r, node: node}
}

// Node returns the node being reported on.
func (nr *NodeReporter) Node() *Node {
	return nr.node
}

// Error records an error against the node.
func (nr *NodeReporter) Error(msg string) {
	nr.r.Error(nr.node.SExpr() + ": " + msg)
}

// Warn records a warning against the node.
func (nr *NodeReporter) Warn(msg string) {
	nr.r.Warn(nr.node.SExpr() + ": " + msg)
}

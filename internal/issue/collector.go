package issue

// Issue is one validation or processing failure surfaced to the caller.
type Issue struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Collector accumulates issues keyed by title. Recording a title twice keeps
// its original position and replaces the detail.
type Collector struct {
	order   []string
	details map[string]string
}

func NewCollector() *Collector {
	return &Collector{details: map[string]string{}}
}

func (c *Collector) Record(title, detail string) {
	if c.details == nil {
		c.details = map[string]string{}
	}
	if _, ok := c.details[title]; !ok {
		c.order = append(c.order, title)
	}
	c.details[title] = detail
}

func (c *Collector) Issues() []Issue {
	if c == nil {
		return []Issue{}
	}
	out := make([]Issue, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, Issue{Title: t, Detail: c.details[t]})
	}
	return out
}

// Map returns the issues as title to detail.
func (c *Collector) Map() map[string]string {
	out := make(map[string]string, c.Len())
	if c == nil {
		return out
	}
	for k, v := range c.details {
		out[k] = v
	}
	return out
}

func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Package share builds the links used to hand a public task to someone else.
// Everything here is pure: no function touches the store or the network.
package share

import (
	"fmt"
	"strings"
)

const (
	TaskPath     = "/task/"
	NativeTitle  = "Tarefa compartilhada"
	EmailSubject = "Tarefa compartilhada"
	CopiedNotice = "Link copiado!"
	whatsAppBase = "https://wa.me/?text="
)

// Strategy selects how a task is delivered.
type Strategy int

const (
	Native Strategy = iota + 1
	WhatsApp
	Clipboard
	Email
)

var strategyNames = map[Strategy]string{
	Native:    "native",
	WhatsApp:  "whatsapp",
	Clipboard: "clipboard",
	Email:     "email",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// Strategies lists every delivery strategy in menu order.
func Strategies() []Strategy { return []Strategy{Email, Native, WhatsApp, Clipboard} }

// ParseStrategy resolves a strategy by its name.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown share strategy %q", name)
}

// ActionKind tells the caller what to do with an Action.
type ActionKind string

const (
	// KindNativeShare hands title, text and URL to the platform share sheet.
	KindNativeShare ActionKind = "native-share"
	// KindOpenURL opens Href (messaging deep link or mailto).
	KindOpenURL ActionKind = "open-url"
	// KindCopy writes URL to the clipboard and shows Notice.
	KindCopy ActionKind = "copy"
	// KindSkip means the platform lacks the capability; nothing happens.
	KindSkip ActionKind = "skip"
)

// Action describes the side effect a front end performs for a strategy.
type Action struct {
	Strategy string     `json:"strategy"`
	Kind     ActionKind `json:"kind"`
	Title    string     `json:"title,omitempty"`
	Text     string     `json:"text,omitempty"`
	URL      string     `json:"url"`
	Href     string     `json:"href,omitempty"`
	Notice   string     `json:"notice,omitempty"`
}

// Capabilities reports what the receiving platform supports.
type Capabilities struct {
	NativeShare bool
}

// Task is the subset of a task the composer needs.
type Task struct {
	ID   string
	Text string
}

// CanonicalURL is the public address of a task detail page.
func CanonicalURL(baseURL, taskID string) string {
	return strings.TrimRight(baseURL, "/") + TaskPath + taskID
}

// Compose builds the action for strategy s.
func Compose(s Strategy, t Task, baseURL string, caps Capabilities) (Action, error) {
	url := CanonicalURL(baseURL, t.ID)
	a := Action{Strategy: s.String(), URL: url}
	switch s {
	case Native:
		if !caps.NativeShare {
			a.Kind = KindSkip
			return a, nil
		}
		a.Kind = KindNativeShare
		a.Title = NativeTitle
		a.Text = t.Text
	case WhatsApp:
		a.Kind = KindOpenURL
		a.Href = whatsAppBase + EncodeURIComponent(fmt.Sprintf("Olha essa tarefa: %s\n%s", t.Text, url))
	case Clipboard:
		a.Kind = KindCopy
		a.Notice = CopiedNotice
	case Email:
		a.Kind = KindOpenURL
		a.Href = "mailto:?subject=" + EncodeURIComponent(EmailSubject) +
			"&body=" + EncodeURIComponent(t.Text+"\n"+url)
	default:
		return Action{}, fmt.Errorf("unknown share strategy %d", int(s))
	}
	return a, nil
}

// All composes every strategy for t, in menu order.
func All(t Task, baseURL string, caps Capabilities) []Action {
	out := make([]Action, 0, len(strategyNames))
	for _, s := range Strategies() {
		a, err := Compose(s, t, baseURL, caps)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s the way browsers encode link
// components: only letters, digits and -_.!~*'() pass through.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

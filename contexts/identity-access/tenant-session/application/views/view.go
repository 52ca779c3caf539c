package views

// Kind selects which screen a route renders.
type Kind string

const (
	KindRedirect  Kind = "redirect"
	KindNone      Kind = "none"
	KindLoading   Kind = "loading"
	KindForbidden Kind = "forbidden"
	KindError     Kind = "error"
	KindReady     Kind = "ready"
	KindDenied    Kind = "denied"
)

// Action is a forward navigation offered by a screen.
type Action struct {
	ID    string
	Label string
	Href  string
}

// DenialScreen is the bounded-disclosure content of an access-denied screen.
type DenialScreen struct {
	Title              string
	Reason             string
	Source             string
	Path               string
	RequestID          string
	Service            string
	Tenant             string
	RequiredPermission string
}

// View is the render result of a gate or presenter evaluation.
type View struct {
	Kind     Kind
	Location string
	Message  string
	Slug     string
	Actions  []Action
	Denial   *DenialScreen
	Content  any
}

func Redirect(location string) View {
	return View{Kind: KindRedirect, Location: location}
}

func None() View {
	return View{Kind: KindNone}
}

func Loading(slug string) View {
	return View{Kind: KindLoading, Slug: slug}
}

// Ready marks a route whose nested content may render.
func Ready(slug string, content any) View {
	return View{Kind: KindReady, Slug: slug, Content: content}
}

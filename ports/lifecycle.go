package ports

// AppState is the host application's foreground/background state.
type AppState string

const (
	AppStateForeground AppState = "foreground"
	AppStateBackground AppState = "background"
)

// AppStateSource delivers application state transitions. Wallet calls hand
// focus to an external app, so consumers use this to notice "came back to the
// foreground while a call is still pending".
type AppStateSource interface {
	// Subscribe registers fn for subsequent transitions and returns an
	// unsubscribe func. Unsubscribing twice is harmless.
	Subscribe(fn func(AppState)) (unsubscribe func())
}

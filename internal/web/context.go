package web

import (
	"github.com/JonMunkholm/signup/internal/core"
	"github.com/JonMunkholm/signup/internal/rowstore"
	mw "github.com/JonMunkholm/signup/internal/web/middleware"
)

// StoreProvider returns the store handle for a request's session. The
// handle is passed to core.Writer.Create; the writer never resolves
// credentials itself.
type StoreProvider func(s mw.Session) core.RowStore

// SharedStore serves every request from the same store, e.g. a pgx pool
// whose credentials are fixed at startup.
func SharedStore(store core.RowStore) StoreProvider {
	return func(mw.Session) core.RowStore { return store }
}

// SessionScopedREST binds each request to base authenticated as the
// caller, so row-level security sees the user's own token. Anonymous
// requests use the API key.
func SessionScopedREST(base *rowstore.REST) StoreProvider {
	return func(s mw.Session) core.RowStore {
		return base.WithAccessToken(s.Token)
	}
}

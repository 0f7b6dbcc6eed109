package powerschool

import (
	"context"
	_ "embed"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed login_page_test.html
var loginPage []byte

//go:embed home_page_test.html
var homePage []byte

//go:embed home_page_alt_test.html
var homePageAlt []byte

//go:embed scores_page_test.html
var scoresPage []byte

//go:embed scores_unweighted_test.html
var scoresPageUnweighted []byte

const (
	transcriptDocument     = `<?xml version="1.0"?><HighSchoolTranscript></HighSchoolTranscript>`
	assignmentListDocument = `<html><body><h1>Assignments In The Last 360 Days</h1></body></html>`
)

// fakePortal serves the embedded portal pages and records what the client
// sent, so tests can assert on both parse results and wire behavior.
type fakePortal struct {
	*httptest.Server

	mu             sync.Mutex
	scoresFetches  int
	lastLogin      url.Values
	detailOverride []byte
}

func newFakePortal(t *testing.T, landing []byte) *fakePortal {
	portal := &fakePortal{}

	mux := http.NewServeMux()
	mux.HandleFunc("/guardian/home.html", func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		require.NoError(t, err)
		portal.mu.Lock()
		portal.lastLogin = r.PostForm
		portal.mu.Unlock()
		w.Write(landing)
	})
	mux.HandleFunc("/guardian/scores.html", func(w http.ResponseWriter, r *http.Request) {
		portal.mu.Lock()
		portal.scoresFetches++
		override := portal.detailOverride
		portal.mu.Unlock()
		if override != nil {
			w.Write(override)
			return
		}
		if r.URL.Query().Get("fg") == "Q2" {
			w.Write(scoresPageUnweighted)
			return
		}
		w.Write(scoresPage)
	})
	mux.HandleFunc("/guardian/studentdata.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(transcriptDocument))
	})
	mux.HandleFunc("/guardian/ppstudentasmtlist.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(assignmentListDocument))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginPage)
	})

	portal.Server = httptest.NewServer(mux)
	t.Cleanup(portal.Close)
	return portal
}

func (p *fakePortal) fetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scoresFetches
}

// overrideDetail makes every subsequent scores.html response serve the
// given body instead of the embedded fixtures.
func (p *fakePortal) overrideDetail(body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detailOverride = body
}

func (p *fakePortal) loginForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastLogin
}

func (p *fakePortal) login(t *testing.T) *User {
	client, err := NewClient(p.URL)
	require.NoError(t, err)
	user, err := Authenticate(context.Background(), client, "aiden.reynolds", "hunter2")
	require.NoError(t, err)
	return user
}

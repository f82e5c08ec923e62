package courseware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const resultsPage = `
<html><body>
<table class="timetable-tab">
<tr><th>Os. číslo</th><th>Cvičící</th><th>SP</th></tr>
<tr id="A21B0000P">
	<td>1</td><td>Ing. Novák</td><td>55</td>
	<td></td><td></td><td></td><td></td><td></td><td></td>
	<td>80</td><td>80/100</td>
</tr>
<tr id="A21B0001P">
	<td>2</td><td>Ing. Novák</td><td></td>
	<td></td><td></td><td></td><td></td><td></td><td></td>
	<td></td><td></td>
</tr>
<tr><td>no id, skipped</td></tr>
</table>
</body></html>`

const loginPage = `
<html><head><title>Single Sign-On</title></head><body>
<form action="%s" method="post">
	<input name="j_username" type="text"/>
	<input name="j_password" type="password"/>
	<button name="_eventId_proceed">Login</button>
</form>
</body></html>`

const samlRelayPage = `
<html><body>
<form action="%s" method="post">
	<input type="hidden" name="RelayState" value="cookie:1"/>
	<input type="hidden" name="SAMLResponse" value="c2FtbA=="/>
</form>
</body></html>`

const detailPage = `
<html><body>
<textarea>Pěkná práce,   drobné chyby v dokumentaci.</textarea>
<b>Datum odevzdání:</b> <input type="text" value="12.01.2026 14:00" readonly/>
<a href="/studies/upload/dokumentace_A21B0000P.pdf">dokumentace</a>
</body></html>`

func TestParseResults(t *testing.T) {
	results, err := parseResults([]byte(resultsPage))
	require.NoError(t, err)
	require.Len(t, results, 2)

	graded := results["A21B0000P"]
	require.Equal(t, "A21B0000P", graded.StudentID)
	require.Equal(t, "Ing. Novák", graded.Fields[FieldTutor])
	require.Equal(t, "55", graded.Fields[FieldSpPoints])
	require.Equal(t, "80", graded.Fields[FieldTotalPoints])
	require.Equal(t, "80/100", graded.Fields[FieldResult])

	// empty cells fall back to the portal's placeholder values
	ungraded := results["A21B0001P"]
	require.Equal(t, "0", ungraded.Fields[FieldSpPoints])
	require.Equal(t, "0", ungraded.Fields[FieldTotalPoints])
	require.Equal(t, "Nezadáno", ungraded.Fields[FieldResult])
}

func TestParseAssessmentDetail(t *testing.T) {
	detail, err := parseAssessmentDetail([]byte(detailPage), "https://example.com/assess.php?SID=A21B0000P")
	require.NoError(t, err)
	require.Equal(t, "Pěkná práce, drobné chyby v dokumentaci.", detail.Text)
	require.Equal(t, "12.01.2026 14:00", detail.SubmittedAt)
	require.Equal(t, "/studies/upload/dokumentace_A21B0000P.pdf", detail.PdfUrl)
}

func TestParseAssessmentDetailEmpty(t *testing.T) {
	detail, err := parseAssessmentDetail([]byte("<html><body></body></html>"), "url")
	require.NoError(t, err)
	require.Equal(t, "Žádný textový komentář.", detail.Text)
	require.Equal(t, "Neznámo", detail.SubmittedAt)
	require.Equal(t, "", detail.PdfUrl)
}

func TestFetchResultsWithSsoLogin(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/results.php", func(w http.ResponseWriter, r *http.Request) {
		session, err := r.Cookie("session")
		if err != nil || session.Value != "ok" {
			fmt.Fprintf(w, loginPage, server.URL+"/idp/login")
			return
		}
		fmt.Fprint(w, resultsPage)
	})
	mux.HandleFunc("/idp/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("j_username") != "student" || r.Form.Get("j_password") != "hunter2" {
			fmt.Fprintf(w, loginPage, server.URL+"/idp/login")
			return
		}
		fmt.Fprintf(w, samlRelayPage, server.URL+"/Shibboleth.sso/SAML2/POST")
	})
	mux.HandleFunc("/Shibboleth.sso/SAML2/POST", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("SAMLResponse") == "" {
			http.Error(w, "missing SAMLResponse", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		http.Redirect(w, r, server.URL+"/results.php", http.StatusFound)
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Options{
		ResultsUrl: server.URL + "/results.php",
		Username:   "student",
		Password:   "hunter2",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	results, err := client.FetchResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "80/100", results["A21B0000P"].Fields[FieldResult])

	// the session cookie is reused, no second login round trip
	results, err = client.FetchResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	snapshot, err := client.Fetch(ctx, "A21B0001P")
	require.NoError(t, err)
	require.Equal(t, "Nezadáno", snapshot.Fields[FieldResult])

	_, err = client.Fetch(ctx, "A99B9999P")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestFetchResultsInvalidCredentials(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/results.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, loginPage, server.URL+"/idp/login")
	})
	mux.HandleFunc("/idp/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, loginPage, server.URL+"/idp/login")
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Options{
		ResultsUrl: server.URL + "/results.php",
		Username:   "student",
		Password:   "wrong",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	_, err = client.FetchResults(ctx)
	require.ErrorIs(t, err, InvalidCredentials)
}

package powerschool

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

var (
	// TokenFetchFailed means the portal root page came back empty or
	// unreachable, so no anti-forgery tokens could be read.
	TokenFetchFailed = fmt.Errorf("unable to retrieve authentication tokens from the portal")
	// MalformedLoginPage means the login form was fetched but is missing
	// its pstoken or contextData hidden inputs.
	MalformedLoginPage = fmt.Errorf("login page is missing its authentication tokens")
	// LoginRejected means the portal refused the submitted credentials.
	// The portal's own feedback message, when present, is attached to it.
	LoginRejected = fmt.Errorf("unable to login to the portal")
)

// successMarker shows up on the landing page immediately after a
// successful login and nowhere on a rejected one.
const successMarker = "Grades and Attendance"

func hmacMd5(key, message string) string {
	mac := hmac.New(md5.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// credentialDigests computes the two hashed credential fields the login
// form expects, keyed on the per-request contextData blob:
// dbpw over the lowercased password, pw over the base64 of the raw md5 of
// the password with its base64 padding stripped. The portal checks these
// bit for bit, so neither leg is negotiable.
func credentialDigests(contextData, password string) (dbpw, pw string) {
	dbpw = hmacMd5(contextData, strings.ToLower(password))

	sum := md5.Sum([]byte(password))
	encoded := strings.ReplaceAll(base64.StdEncoding.EncodeToString(sum[:]), "=", "")
	pw = hmacMd5(contextData, encoded)
	return dbpw, pw
}

type authTokens struct {
	Pstoken     string
	ContextData string
	Ldap        bool
}

func fetchAuthTokens(ctx context.Context, client *Client) (authTokens, error) {
	ctx, span := tracer.Start(ctx, "fetchAuthTokens")
	defer span.End()

	body, err := client.Fetch(ctx, "", nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return authTokens{}, fmt.Errorf("%w: %s", TokenFetchFailed, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		span.SetStatus(codes.Error, "empty login page")
		return authTokens{}, TokenFetchFailed
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page html")
		return authTokens{}, err
	}

	tokens := authTokens{
		Pstoken:     doc.Find(`input[name="pstoken"]`).AttrOr("value", ""),
		ContextData: doc.Find(`input[name="contextData"]`).AttrOr("value", ""),
		Ldap:        doc.Find(`input[name="ldappassword"]`).Length() > 0,
	}
	if tokens.Pstoken == "" || tokens.ContextData == "" {
		span.SetStatus(codes.Error, MalformedLoginPage.Error())
		return authTokens{}, MalformedLoginPage
	}
	return tokens, nil
}

// Authenticate performs the full login handshake against the portal the
// client points at and parses the resulting landing page into a User.
// After a failure the session is not usable for anything.
func Authenticate(ctx context.Context, client *Client, username, password string) (*User, error) {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()

	tokens, err := fetchAuthTokens(ctx, client)
	if err != nil {
		return nil, err
	}

	dbpw, pw := credentialDigests(tokens.ContextData, password)
	form := url.Values{
		"pstoken":        {tokens.Pstoken},
		"contextData":    {tokens.ContextData},
		"dbpw":           {dbpw},
		"serviceName":    {"PS Parent Portal"},
		"pcasServerUrl":  {"/"},
		"credentialType": {"User Id and Password Credential"},
		"account":        {username},
		"pw":             {pw},
	}
	if tokens.Ldap {
		// directory-backed districts want the plaintext password in an
		// extra field, the one place it travels over the wire
		form.Set("ldappassword", password)
	}

	body, err := client.Fetch(ctx, "guardian/home.html", form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return nil, err
	}

	if !bytes.Contains(body, []byte(successMarker)) {
		message := loginFeedback(body)
		span.SetStatus(codes.Error, LoginRejected.Error())
		if message != "" {
			return nil, fmt.Errorf("%w: %s", LoginRejected, message)
		}
		return nil, LoginRejected
	}

	user, err := parseUser(ctx, client, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse landing page")
		return nil, err
	}
	return user, nil
}

// loginFeedback digs the portal's own rejection message out of a failed
// login response, if it bothered to include one.
func loginFeedback(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("div.feedback-alert").First().Text())
}

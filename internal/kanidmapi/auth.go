package kanidmapi

import (
	"context"

	"github.com/gravitational/trace"
)

// authInitRequest, authBeginRequest and authCredRequest mirror Kanidm's
// multi-step auth init/begin/cred exchange, collapsed
// to the single "password" mechanism the operator's admin bootstrap uses.
type authInitRequest struct {
	Step struct {
		Init string `json:"init"`
	} `json:"step"`
}

type authBeginRequest struct {
	Step struct {
		Begin string `json:"begin"`
	} `json:"step"`
}

type authCredRequest struct {
	Step struct {
		Cred struct {
			Password string `json:"password"`
		} `json:"cred"`
	} `json:"step"`
}

type authResponse struct {
	SessionID string `json:"sessionid"`
	State     struct {
		Success string `json:"success"`
	} `json:"state"`
}

// Login performs the init/begin/password exchange against /v1/auth and
// returns a bearer token for the authenticated session.
func Login(ctx context.Context, baseURL, username, password string, insecureSkipVerify bool) (string, error) {
	c := NewClient(baseURL, "", insecureSkipVerify)

	initReq := authInitRequest{}
	initReq.Step.Init = username

	var initResp authResponse
	resp, err := c.newRequest(ctx).
		SetBody(initReq).
		SetResult(&initResp).
		Post("/v1/auth")
	if err != nil {
		return "", trace.Wrap(err, "auth init failed")
	}
	sessionID := resp.Header().Get("X-KANIDM-AUTH-SESSION-ID")
	if sessionID == "" {
		sessionID = initResp.SessionID
	}

	beginReq := authBeginRequest{}
	beginReq.Step.Begin = "password"

	var beginResp authResponse
	resp, err = c.newRequest(ctx).
		SetHeader("X-KANIDM-AUTH-SESSION-ID", sessionID).
		SetBody(beginReq).
		SetResult(&beginResp).
		Post("/v1/auth")
	if err != nil {
		return "", trace.Wrap(err, "auth begin failed")
	}
	if sid := resp.Header().Get("X-KANIDM-AUTH-SESSION-ID"); sid != "" {
		sessionID = sid
	}

	credReq := authCredRequest{}
	credReq.Step.Cred.Password = password

	var credResp authResponse
	resp, err = c.newRequest(ctx).
		SetHeader("X-KANIDM-AUTH-SESSION-ID", sessionID).
		SetBody(credReq).
		SetResult(&credResp).
		Post("/v1/auth")
	if err != nil {
		return "", trace.Wrap(err, "auth credential exchange failed")
	}
	if credResp.State.Success == "" {
		return "", trace.AccessDenied("kanidm: authentication did not succeed for %q", username)
	}

	return credResp.State.Success, nil
}

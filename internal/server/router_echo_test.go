package server

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
)

func TestEchoLinkAnonymousMessageFlow(t *testing.T) {
	harness := newRouterHarness(t)
	owner := harness.register(t, "owner")

	recorder := harness.do(t, http.MethodPost, "/api/echo-links", map[string]any{"userId": owner.ID, "linkId": "ask-owner", "welcomeMessage": "Ask me anything"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create echo link failed: %d %s", recorder.Code, recorder.Body.String())
	}
	var link store.EchoLink
	decodeBody(t, recorder, &link)
	if !link.Active {
		t.Fatalf("expected new link to be active")
	}
	expectMessage(t, harness.do(t, http.MethodPost, "/api/echo-links", map[string]any{"userId": owner.ID}), http.StatusBadRequest, "User already has an echo link")

	recorder = harness.do(t, http.MethodGet, "/api/echo-links/ask-owner", nil)
	var bySlug store.EchoLink
	decodeBody(t, recorder, &bySlug)
	if bySlug.ID != link.ID {
		t.Fatalf("slug lookup returned %+v", bySlug)
	}

	recorder = harness.do(t, http.MethodPost, "/api/anonymous-messages", map[string]any{"echoLinkId": link.ID, "content": "what is your favourite colour?"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("anonymous submit failed: %d %s", recorder.Code, recorder.Body.String())
	}
	var anonymous store.AnonymousMessage
	decodeBody(t, recorder, &anonymous)

	notifications := harness.notifications(t, owner.ID)
	if len(notifications) != 1 || notifications[0].Type != store.NotificationTypeAnonymousMessage {
		t.Fatalf("expected anonymous message notification, got %+v", notifications)
	}

	answered := true
	recorder = harness.do(t, http.MethodPatch, "/api/anonymous-messages/"+itoa(anonymous.ID), map[string]any{"answered": answered})
	if recorder.Code != http.StatusOK {
		t.Fatalf("mark answered failed: %d %s", recorder.Code, recorder.Body.String())
	}
	expectMessage(t, harness.do(t, http.MethodPatch, "/api/anonymous-messages/"+itoa(anonymous.ID), map[string]any{"answered": false}), http.StatusBadRequest, "An answered message cannot be marked unanswered")

	recorder = harness.do(t, http.MethodPatch, "/api/echo-links/"+itoa(link.ID), map[string]any{"active": false})
	if recorder.Code != http.StatusOK {
		t.Fatalf("deactivate failed: %d %s", recorder.Code, recorder.Body.String())
	}
	expectMessage(t, harness.do(t, http.MethodPost, "/api/anonymous-messages", map[string]any{"echoLinkId": link.ID, "content": "still there?"}), http.StatusBadRequest, "This echo link is not accepting messages")

	recorder = harness.do(t, http.MethodGet, "/api/echo-links/"+itoa(link.ID)+"/messages", nil)
	var inbox []store.AnonymousMessage
	decodeBody(t, recorder, &inbox)
	if len(inbox) != 1 || !inbox[0].Answered {
		t.Fatalf("unexpected inbox %+v", inbox)
	}
}

func TestAnonymousMessagesAreRateLimitedPerIP(t *testing.T) {
	harness := newRouterHarness(t, func(deps *Dependencies) {
		deps.AnonymousLimit = RateLimit{PerMinute: 1, Burst: 1}
	})
	owner := harness.register(t, "owner")
	recorder := harness.do(t, http.MethodPost, "/api/echo-links", map[string]any{"userId": owner.ID})
	var link store.EchoLink
	decodeBody(t, recorder, &link)

	body := map[string]any{"echoLinkId": link.ID, "content": "first"}
	if recorder := harness.do(t, http.MethodPost, "/api/anonymous-messages", body); recorder.Code != http.StatusCreated {
		t.Fatalf("first submission failed: %d %s", recorder.Code, recorder.Body.String())
	}
	expectMessage(t, harness.do(t, http.MethodPost, "/api/anonymous-messages", body), http.StatusTooManyRequests, messageRateLimited)

	if notifications := harness.notifications(t, owner.ID); len(notifications) != 1 {
		t.Fatalf("expected the limited request to create nothing, got %d notifications", len(notifications))
	}
}

func TestForwardedForDoesNotBypassRateLimit(t *testing.T) {
	harness := newRouterHarness(t, func(deps *Dependencies) {
		deps.AnonymousLimit = RateLimit{PerMinute: 1, Burst: 1}
	})
	owner := harness.register(t, "owner")
	recorder := harness.do(t, http.MethodPost, "/api/echo-links", map[string]any{"userId": owner.ID})
	var link store.EchoLink
	decodeBody(t, recorder, &link)

	body := map[string]any{"echoLinkId": link.ID, "content": "hi"}
	accepted := 0
	for i := 0; i < 5; i++ {
		forwarded := "203.0.113." + strconv.Itoa(i+1)
		if recorder := harness.do(t, http.MethodPost, "/api/anonymous-messages", body, "X-Forwarded-For", forwarded); recorder.Code == http.StatusCreated {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("expected one accepted submission, got %d", accepted)
	}
}

func TestTrustedProxyForwardedForIsHonoured(t *testing.T) {
	harness := newRouterHarness(t, func(deps *Dependencies) {
		deps.AnonymousLimit = RateLimit{PerMinute: 1, Burst: 1}
		deps.TrustedProxies = []string{"192.0.2.0/24"}
	})
	owner := harness.register(t, "owner")
	recorder := harness.do(t, http.MethodPost, "/api/echo-links", map[string]any{"userId": owner.ID})
	var link store.EchoLink
	decodeBody(t, recorder, &link)

	body := map[string]any{"echoLinkId": link.ID, "content": "hi"}
	for _, forwarded := range []string{"203.0.113.1", "203.0.113.2"} {
		if recorder := harness.do(t, http.MethodPost, "/api/anonymous-messages", body, "X-Forwarded-For", forwarded); recorder.Code != http.StatusCreated {
			t.Fatalf("expected distinct forwarded clients to pass, got %d for %s", recorder.Code, forwarded)
		}
	}
	expectMessage(t, harness.do(t, http.MethodPost, "/api/anonymous-messages", body, "X-Forwarded-For", "203.0.113.1"), http.StatusTooManyRequests, messageRateLimited)
}

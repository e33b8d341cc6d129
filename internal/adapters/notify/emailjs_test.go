package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/okian/teamdraw/internal/adapters/notify"
	"github.com/okian/teamdraw/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type capturedRequest struct {
	method      string
	path        string
	contentType string
	body        map[string]any
}

func sink(status int, reply string) (*httptest.Server, func() []capturedRequest) {
	var mu sync.Mutex
	var got []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		got = append(got, capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), got...)
	}
}

var creds = notify.Credentials{
	ServiceID:  "service_x",
	TemplateID: "template_y",
	PublicKey:  "public_z",
}

func summaryNote() model.Notification {
	return model.NewNotification("s-1", "Teams drawn - 19/10/2026 18:30:00\nTeam 1: Ana, Bob", time.Now())
}

func TestEmailJSSend(t *testing.T) {
	Convey("Given an EmailJS client pointed at a fake sink", t, func() {
		srv, requests := sink(http.StatusOK, "OK")
		defer srv.Close()

		client, err := notify.NewEmailJS(creds, notify.WithEndpoint(srv.URL+"/"))
		So(err, ShouldBeNil)

		Convey("When a summary is sent", func() {
			err := client.Send(context.Background(), summaryNote())

			Convey("Then the request carries the credentials and the message", func() {
				So(err, ShouldBeNil)
				got := requests()
				So(got, ShouldHaveLength, 1)
				So(got[0].method, ShouldEqual, http.MethodPost)
				So(got[0].path, ShouldEqual, "/api/v1.0/email/send")
				So(got[0].contentType, ShouldEqual, "application/json")
				So(got[0].body["service_id"], ShouldEqual, "service_x")
				So(got[0].body["template_id"], ShouldEqual, "template_y")
				So(got[0].body["user_id"], ShouldEqual, "public_z")
				So(got[0].body, ShouldNotContainKey, "accessToken")
				params, ok := got[0].body["template_params"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(params["message"], ShouldEqual, "Teams drawn - 19/10/2026 18:30:00\nTeam 1: Ana, Bob")
			})
		})
	})

	Convey("Given a private key and a custom template parameter", t, func() {
		srv, requests := sink(http.StatusOK, "OK")
		defer srv.Close()

		withKey := creds
		withKey.PrivateKey = "secret"
		client, err := notify.NewEmailJS(withKey,
			notify.WithEndpoint(srv.URL),
			notify.WithMessageParam("teams"),
			notify.WithTimeout(time.Second),
		)
		So(err, ShouldBeNil)
		So(client.Send(context.Background(), summaryNote()), ShouldBeNil)

		Convey("Then both appear in the request", func() {
			body := requests()[0].body
			So(body["accessToken"], ShouldEqual, "secret")
			params := body["template_params"].(map[string]any)
			So(params, ShouldContainKey, "teams")
		})
	})

	Convey("Given a sink that rejects the request", t, func() {
		srv, _ := sink(http.StatusBadRequest, "The template ID is invalid")
		defer srv.Close()

		client, err := notify.NewEmailJS(creds, notify.WithEndpoint(srv.URL))
		So(err, ShouldBeNil)

		Convey("Then Send returns ErrRejected with the status and body", func() {
			err := client.Send(context.Background(), summaryNote())
			So(errors.Is(err, notify.ErrRejected), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "status 400")
			So(err.Error(), ShouldContainSubstring, "template ID is invalid")
		})
	})

	Convey("Given a sink that is unreachable", t, func() {
		srv, _ := sink(http.StatusOK, "OK")
		srv.Close()

		client, err := notify.NewEmailJS(creds, notify.WithEndpoint(srv.URL))
		So(err, ShouldBeNil)

		Convey("Then Send returns a transport error", func() {
			err := client.Send(context.Background(), summaryNote())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, notify.ErrRejected), ShouldBeFalse)
		})
	})
}

func slowSink(delay time.Duration) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestEmailJSTimeout(t *testing.T) {
	Convey("Given a shared HTTP client and a short timeout", t, func() {
		srv := slowSink(500 * time.Millisecond)
		defer srv.Close()
		shared := &http.Client{}

		orders := map[string][]notify.EmailOption{
			"client first":  {notify.WithHTTPClient(shared), notify.WithTimeout(20 * time.Millisecond)},
			"timeout first": {notify.WithTimeout(20 * time.Millisecond), notify.WithHTTPClient(shared)},
		}

		Convey("Then the timeout applies in either option order", func() {
			for _, opts := range orders {
				client, err := notify.NewEmailJS(creds, append(opts, notify.WithEndpoint(srv.URL))...)
				So(err, ShouldBeNil)
				start := time.Now()
				So(client.Send(context.Background(), summaryNote()), ShouldNotBeNil)
				So(time.Since(start), ShouldBeLessThan, 400*time.Millisecond)
			}
		})

		Convey("Then the caller's client is left untouched", func() {
			for _, opts := range orders {
				_, err := notify.NewEmailJS(creds, opts...)
				So(err, ShouldBeNil)
			}
			So(shared.Timeout, ShouldEqual, time.Duration(0))
		})
	})

	Convey("Given a caller client with its own timeout and no WithTimeout", t, func() {
		srv := slowSink(500 * time.Millisecond)
		defer srv.Close()
		shared := &http.Client{Timeout: 20 * time.Millisecond}

		client, err := notify.NewEmailJS(creds, notify.WithHTTPClient(shared), notify.WithEndpoint(srv.URL))
		So(err, ShouldBeNil)

		Convey("Then that timeout is kept", func() {
			So(client.Send(context.Background(), summaryNote()), ShouldNotBeNil)
			So(shared.Timeout, ShouldEqual, 20*time.Millisecond)
		})
	})
}

func TestNewNotifier(t *testing.T) {
	Convey("Given incomplete credentials", t, func() {
		partial := notify.Credentials{ServiceID: "service_x"}

		Convey("Then NewEmailJS refuses them", func() {
			_, err := notify.NewEmailJS(partial)
			So(err, ShouldEqual, notify.ErrMissingConfig)
		})

		Convey("Then New falls back to the disabled notifier", func() {
			n := notify.New(partial)
			So(n, ShouldHaveSameTypeAs, notify.Disabled{})
			So(n.Send(context.Background(), summaryNote()), ShouldEqual, notify.ErrDisabled)
		})
	})

	Convey("Given complete credentials", t, func() {
		Convey("Then New returns an EmailJS client", func() {
			_, ok := notify.New(creds).(*notify.EmailJS)
			So(ok, ShouldBeTrue)
		})
	})
}

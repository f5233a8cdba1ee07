package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"policymitr-client/internal/models"
)

func TestHub_RejectsBadToken(t *testing.T) {
	h := NewHub(nil, "secret")
	for _, q := range []string{"", "?token=garbage"} {
		rr := httptest.NewRecorder()
		h.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws"+q, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %q, got %d", q, rr.Code)
		}
	}
}

func TestHub_PublishLocal(t *testing.T) {
	h := NewHub(nil, "secret")
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	userID := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID.String()}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Connections(userID.String()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	surfaceID := uuid.New()
	h.Publish(userID.String(), models.WSMessage{
		Type:      models.EventNotification,
		SurfaceID: surfaceID,
		Payload:   models.Notification{Level: "error", Message: "Translation failed"},
	})
	h.Publish(uuid.NewString(), models.WSMessage{Type: models.EventNotification})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got struct {
		Type      string              `json:"type"`
		SurfaceID uuid.UUID           `json:"surface_id"`
		Payload   models.Notification `json:"payload"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != models.EventNotification || got.SurfaceID != surfaceID || got.Payload.Message != "Translation failed" {
		t.Errorf("Unexpected event %+v", got)
	}
}

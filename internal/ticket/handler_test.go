package ticket_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/it-helpdesk/internal"
	ticketDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/ticket"
	userDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/it-helpdesk/internal/ticket/postgres"
	"github.com/frahmantamala/it-helpdesk/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func asUser(req *http.Request, id string, role coreUser.Role) *http.Request {
	return req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: id, Role: role}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonBody(v interface{}) *bytes.Reader {
	raw, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return bytes.NewReader(raw)
}

var _ = Describe("Ticket Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *ticket.Handler
		base    time.Time
	)

	seedTicket := func(id, ownerID string, priority ticket.Priority, status ticket.Status, createdAt time.Time) {
		m := &ticketDatamodel.Ticket{
			ID:          id,
			Title:       "Ticket " + id,
			Description: "Description " + id,
			Priority:    string(priority),
			Status:      string(status),
			OwnerID:     ownerID,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		if status == ticket.StatusCompleted {
			done := createdAt.Add(time.Hour)
			m.CompletedAt = &done
		}
		Expect(db.Create(m).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&userDatamodel.User{}, &ticketDatamodel.Ticket{})).To(Succeed())

		for _, u := range []*userDatamodel.User{
			{ID: "u-ana", Name: "Ana", Username: "ana", Email: "ana@example.com", Department: "Recepção", DepartmentKey: coreUser.NormalizeDepartment("Recepção"), PasswordHash: "x", Role: "USER"},
			{ID: "u-bia", Name: "Bia", Username: "bia", Email: "bia@example.com", Department: "Finance", DepartmentKey: coreUser.NormalizeDepartment("Finance"), PasswordHash: "x", Role: "USER"},
			{ID: "u-it", Name: "Ivo", Username: "ivo", Email: "ivo@example.com", Department: "IT", DepartmentKey: coreUser.NormalizeDepartment("IT"), PasswordHash: "x", Role: "IT"},
		} {
			Expect(db.Create(u).Error).To(Succeed())
		}

		base = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
		service := ticket.NewService(ticketPostgres.NewTicketRepository(db), nil, time.UTC, slogger)
		handler = &ticket.Handler{BaseHandler: &transport.BaseHandler{Logger: slogger}, Service: service}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("should create a ticket for the caller and list it back", func() {
		// Given
		req := httptest.NewRequest(http.MethodPost, "/api/tickets", jsonBody(map[string]string{
			"title":       "Printer jam",
			"description": "Second floor printer",
			"priority":    "NORMAL",
		}))
		w := httptest.NewRecorder()

		// When
		handler.CreateTicket(w, asUser(req, "u-ana", coreUser.RoleUser))

		// Then
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created["status"]).To(Equal("REQUESTED"))
		Expect(created["ownerId"]).To(Equal("u-ana"))
		Expect(created["completedAt"]).To(BeNil())
		Expect(created["owner"]).To(HaveKeyWithValue("email", "ana@example.com"))
		Expect(created["owner"]).NotTo(HaveKey("passwordHash"))

		list := httptest.NewRecorder()
		handler.ListOwnTickets(list, asUser(httptest.NewRequest(http.MethodGet, "/api/tickets", nil), "u-ana", coreUser.RoleUser))
		Expect(list.Code).To(Equal(http.StatusOK))
		var mine []map[string]interface{}
		Expect(json.NewDecoder(list.Body).Decode(&mine)).To(Succeed())
		Expect(mine).To(HaveLen(1))
	})

	It("should reject an invalid body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/tickets", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()

		handler.CreateTicket(w, asUser(req, "u-ana", coreUser.RoleUser))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(`"code":"INVALID_REQUEST"`))
	})

	It("should answer the queue position with nulls when the caller has nothing waiting", func() {
		w := httptest.NewRecorder()

		handler.MyQueuePosition(w, asUser(httptest.NewRequest(http.MethodGet, "/api/tickets/my-position", nil), "u-bia", coreUser.RoleUser))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"position":null,"ticketTitle":null}`))
	})

	It("should rank an URGENT ticket ahead of an earlier NORMAL one", func() {
		// Given A at 10:00 NORMAL and B at 10:05 URGENT
		seedTicket("A", "u-ana", ticket.PriorityNormal, ticket.StatusRequested, base)
		seedTicket("B", "u-bia", ticket.PriorityUrgent, ticket.StatusRequested, base.Add(5*time.Minute))

		// When
		w := httptest.NewRecorder()
		handler.MyQueuePosition(w, asUser(httptest.NewRequest(http.MethodGet, "/api/tickets/my-position", nil), "u-ana", coreUser.RoleUser))

		// Then
		Expect(w.Body.String()).To(MatchJSON(`{"position":2,"ticketTitle":"Ticket A"}`))

		queue := httptest.NewRecorder()
		handler.ListQueue(queue, httptest.NewRequest(http.MethodGet, "/api/admin/tickets", nil))
		var tickets []map[string]interface{}
		Expect(json.NewDecoder(queue.Body).Decode(&tickets)).To(Succeed())
		Expect(tickets).To(HaveLen(2))
		Expect(tickets[0]["id"]).To(Equal("B"))
		Expect(tickets[1]["id"]).To(Equal("A"))
	})

	It("should filter the queue by normalized department and priority", func() {
		seedTicket("A", "u-ana", ticket.PriorityNormal, ticket.StatusRequested, base)
		seedTicket("B", "u-bia", ticket.PriorityUrgent, ticket.StatusInProgress, base)
		seedTicket("C", "u-ana", ticket.PriorityUrgent, ticket.StatusCompleted, base)

		w := httptest.NewRecorder()
		handler.ListQueue(w, httptest.NewRequest(http.MethodGet, "/api/admin/tickets?department=recepcao", nil))
		var tickets []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&tickets)).To(Succeed())
		Expect(tickets).To(HaveLen(1))
		Expect(tickets[0]["id"]).To(Equal("A"))
		Expect(tickets[0]["owner"]).To(HaveKeyWithValue("department", "Recepção"))

		w = httptest.NewRecorder()
		handler.ListQueue(w, httptest.NewRequest(http.MethodGet, "/api/admin/tickets?priority=URGENT", nil))
		tickets = nil
		Expect(json.NewDecoder(w.Body).Decode(&tickets)).To(Succeed())
		Expect(tickets).To(HaveLen(1))
		Expect(tickets[0]["id"]).To(Equal("B"))

		w = httptest.NewRecorder()
		handler.ListQueue(w, httptest.NewRequest(http.MethodGet, "/api/admin/tickets?priority=LOW", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should complete a ticket and expose completedAt", func() {
		seedTicket("A", "u-ana", ticket.PriorityNormal, ticket.StatusRequested, base)

		req := withURLParam(httptest.NewRequest(http.MethodPatch, "/api/admin/tickets/A", jsonBody(map[string]string{
			"status":              "COMPLETED",
			"estimatedCompletion": "2024-03-06",
		})), "id", "A")
		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var updated map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated["status"]).To(Equal("COMPLETED"))
		Expect(updated["completedAt"]).NotTo(BeNil())
		Expect(updated["estimatedCompletion"]).To(Equal("2024-03-06"))

		var stored ticketDatamodel.Ticket
		Expect(db.First(&stored, "id = ?", "A").Error).To(Succeed())
		Expect(stored.CompletedAt).NotTo(BeNil())
	})

	It("should answer 404 for an unknown ticket and 400 for a backwards move", func() {
		seedTicket("C", "u-ana", ticket.PriorityNormal, ticket.StatusCompleted, base)

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, withURLParam(httptest.NewRequest(http.MethodPatch, "/api/admin/tickets/nope", jsonBody(map[string]string{"status": "IN_PROGRESS"})), "id", "nope"))
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("TICKET_NOT_FOUND"))

		w = httptest.NewRecorder()
		handler.UpdateStatus(w, withURLParam(httptest.NewRequest(http.MethodPatch, "/api/admin/tickets/C", jsonBody(map[string]string{"status": "REQUESTED"})), "id", "C"))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_STATUS_TRANSITION"))
	})

	It("should report BUSY with the in-progress task", func() {
		seedTicket("A", "u-ana", ticket.PriorityNormal, ticket.StatusInProgress, base)

		w := httptest.NewRecorder()
		handler.ITStatus(w, httptest.NewRequest(http.MethodGet, "/api/it-status", nil))

		Expect(w.Body.String()).To(MatchJSON(`{"status":"BUSY","task":{"ticketId":"A","title":"Ticket A","priority":"NORMAL","ownerId":"u-ana"}}`))
	})

	It("should page through the history of a given day", func() {
		seedTicket("A", "u-ana", ticket.PriorityNormal, ticket.StatusCompleted, base)
		seedTicket("B", "u-ana", ticket.PriorityNormal, ticket.StatusCompleted, base.Add(2*time.Hour))
		seedTicket("C", "u-bia", ticket.PriorityNormal, ticket.StatusCompleted, base.Add(48*time.Hour))

		w := httptest.NewRecorder()
		handler.ListHistory(w, httptest.NewRequest(http.MethodGet, "/api/admin/tickets/history?year=2024&month=3&day=4&limit=1", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var page struct {
			Tickets []map[string]interface{} `json:"tickets"`
			Total   int64                    `json:"total"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(page.Total).To(Equal(int64(2)))
		Expect(page.Tickets).To(HaveLen(1))
		Expect(page.Tickets[0]["id"]).To(Equal("B"))

		w = httptest.NewRecorder()
		handler.ListHistory(w, httptest.NewRequest(http.MethodGet, "/api/admin/tickets/history?day=4", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = httptest.NewRecorder()
		handler.ListHistory(w, httptest.NewRequest(http.MethodGet, "/api/admin/tickets/history?page=0", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})

package checkoutcrypto

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/cryptocheckout/lib/mycontext"
	"github.com/MarcGrol/cryptocheckout/lib/myhttp"
	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mypublisher"
	"github.com/MarcGrol/cryptocheckout/lib/mypubsub"
	"github.com/MarcGrol/cryptocheckout/lib/mystore"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
	"github.com/MarcGrol/cryptocheckout/lib/myuuid"
	"github.com/MarcGrol/cryptocheckout/services/checkoutapi"
	"github.com/MarcGrol/cryptocheckout/services/orderevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

type SessionView struct {
	Session CheckoutSession
	Orders  []OrderRecord
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(clock mytime.Clock, uuider myuuid.UUIDer, newController ControllerFactory, sessionStore mystore.Store[CheckoutSession],
	orderStore mystore.Store[OrderRecord], publisher mypublisher.Publisher, subscriber mypubsub.PubSub, balances BalanceReader) *webService {
	logger := mylog.New("checkoutcrypto")
	return &webService{
		logger:  logger,
		service: newService(logger, clock, uuider, newController, sessionStore, orderStore, publisher, subscriber, balances),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/crypto/checkout", s.startSessionPage()).Methods("POST")
	router.HandleFunc("/crypto/checkout/{sessionUID}", s.getOrderPage()).Methods("GET")
	router.HandleFunc("/crypto/checkout/{sessionUID}", s.cancelOrderPage()).Methods("DELETE")
	router.HandleFunc("/crypto/checkout/{sessionUID}/order", s.createOrderPage()).Methods("POST")
	router.HandleFunc("/crypto/checkout/{sessionUID}/sign", s.signOrderPage()).Methods("POST")
	router.HandleFunc("/crypto/checkout/{sessionUID}/poll", s.pollOrderPage()).Methods("POST")
	router.HandleFunc("/crypto/checkout/{sessionUID}/payer", s.updatePayerPage()).Methods("POST")
	router.HandleFunc("/crypto/checkout/{sessionUID}/balance", s.balancePage()).Methods("GET")

	router.HandleFunc("/crypto/session/{sessionUID}", s.getSessionPage()).Methods("GET")
	router.HandleFunc("/crypto/order/{orderUID}", s.getOrderRecordPage()).Methods("GET")

	// Pushed by pubsub
	router.HandleFunc("/crypto/event", s.handleEventEnvelope()).Methods("POST")

	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

// Close stops the timers of all checkout sessions.
func (s *webService) Close() {
	s.service.close()
}

func (s *webService) startSessionPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID, err := s.service.startSession(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/crypto/checkout/%s", sessionUID), http.StatusSeeOther)
	}
}

func (s *webService) createOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID := mux.Vars(r)["sessionUID"]

		form, err := checkoutapi.NewFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		view, err := s.service.createOrder(c, sessionUID, form.ToCreateOrderRequest())
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, view)
	}
}

func (s *webService) getOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		view, err := s.service.getOrder(c, mux.Vars(r)["sessionUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, view)
	}
}

func (s *webService) signOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		view, err := s.service.signOrder(c, mux.Vars(r)["sessionUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, view)
	}
}

func (s *webService) pollOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		view, err := s.service.pollOrder(c, mux.Vars(r)["sessionUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, view)
	}
}

func (s *webService) updatePayerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form, err := checkoutapi.PayerFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		view, err := s.service.updatePayerAddress(c, mux.Vars(r)["sessionUID"], form.PayerAddress)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, view)
	}
}

func (s *webService) cancelOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		view, err := s.service.cancelOrder(c, mux.Vars(r)["sessionUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, view)
	}
}

func (s *webService) balancePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		view, err := s.service.walletBalance(c, mux.Vars(r)["sessionUID"], r.URL.Query().Get("address"))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, view)
	}
}

func (s *webService) getSessionPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, orders, err := s.service.getSession(c, mux.Vars(r)["sessionUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, SessionView{
			Session: session,
			Orders:  orders,
		})
	}
}

func (s *webService) getOrderRecordPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		record, err := s.service.getOrderRecord(c, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, record)
	}
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := orderevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}

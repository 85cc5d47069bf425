package warmup

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/cryptocheckout/lib/mycontext"
	"github.com/MarcGrol/cryptocheckout/lib/myerrors"
	"github.com/MarcGrol/cryptocheckout/lib/myhttp"
	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mystore"
	"github.com/MarcGrol/cryptocheckout/services/checkoutcrypto"
)

const warmupUID = "warmup"

type webService struct {
	logger       mylog.Logger
	sessionStore mystore.Store[checkoutcrypto.CheckoutSession]
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(sessionStore mystore.Store[checkoutcrypto.CheckoutSession]) *webService {
	logger := mylog.New("warmup")
	return &webService{
		logger:       logger,
		sessionStore: sessionStore,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

// warmupPage opens the connection to the datastore before the first shopper arrives
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, _, err := s.sessionStore.Get(c, warmupUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInternalError(err))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}

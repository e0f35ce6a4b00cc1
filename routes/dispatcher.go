package routes

import (
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-posts/controllers"
	"github.com/snap-point/social-posts/middleware"
	"github.com/snap-point/social-posts/store"
	"github.com/snap-point/social-posts/utils"
)

// Dispatcher serves every request from a fixed path → handler table. Each
// request gets its own database session which is closed on every exit path.
type Dispatcher struct {
	routes   map[string]controllers.HandlerFunc
	sessions store.SessionFactory
}

func NewDispatcher(sessions store.SessionFactory, routes map[string]controllers.HandlerFunc) *Dispatcher {
	table := make(map[string]controllers.HandlerFunc, len(routes))
	for path, handler := range routes {
		table[path] = handler
	}
	return &Dispatcher{routes: table, sessions: sessions}
}

func (d *Dispatcher) Handle(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	path := c.Request.URL.Path
	params := c.Request.URL.Query()

	session, err := d.sessions.Open(c.Request.Context())
	if err != nil {
		log.Printf("[%s] %s: open session: %v", requestID, path, err)
		utils.SendStatus(c, http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("[%s] %s: close session: %v", requestID, path, err)
		}
	}()

	handler, ok := d.routes[path]
	if !ok {
		utils.SendStatus(c, http.StatusNotFound)
		return
	}

	if err := d.invoke(handler, c, params, session.Posts()); err != nil {
		log.Printf("[%s] %s: %v", requestID, path, err)
		if !c.Writer.Written() {
			utils.SendStatus(c, http.StatusInternalServerError)
		}
	}
}

// invoke converts a handler panic into an error so it is answered like any
// other internal fault.
func (d *Dispatcher) invoke(handler controllers.HandlerFunc, c *gin.Context, params url.Values, posts store.PostTable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(c, params, posts)
}

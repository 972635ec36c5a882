// Command worker is the trivial stub upstream service the dispatch proxy
// forwards requests to. It exposes a health check and two endpoints that
// simulate slow work, translating the original worker_service into the
// gin idiom used throughout this repository.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	port := 3000
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	} else if len(os.Args) > 1 {
		if p, err := strconv.Atoi(os.Args[1]); err == nil {
			port = p
		}
	}

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Health Status - OK")
	})

	r.GET("/work", func(c *gin.Context) {
		time.Sleep(1 * time.Second)
		c.String(http.StatusOK, "Work complete!")
	})

	r.GET("/heavy_work", func(c *gin.Context) {
		time.Sleep(10 * time.Second)
		c.String(http.StatusOK, "Heavy Work complete!")
	})

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusBadRequest, "worker on port %d received %s %s", port, c.Request.Method, c.Request.URL.String())
	})

	addr := fmt.Sprintf(":%d", port)
	r.Run(addr)
}

package gateway

import (
	"io"
	"net/http"
	"strconv"

	"github.com/danmuck/summarizer/internal/config"
	"github.com/danmuck/summarizer/internal/observability"
	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func locationHandler(loc config.Location, client Summarizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			c.Header("Allow", "GET, HEAD")
			c.AbortWithStatus(http.StatusMethodNotAllowed)
			return
		}

		req, err := RequestFromQuery(c.Request.URL.Query(), loc)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		resp, err := client.Summarize(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(StatusForError(err))
			return
		}
		defer resp.Body.Close()

		if resp.Status != protocol.StatusSummary {
			c.AbortWithStatus(StatusForResponse(resp.Status))
			return
		}

		c.Header("Content-Type", loc.DefaultType)
		c.Header("Content-Length", strconv.FormatUint(uint64(resp.SummaryLength), 10))
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
		if method == http.MethodHead {
			return
		}

		n, err := io.Copy(c.Writer, resp.Body)
		observability.RecordSummaryBytes(loc.Path, n)
		if err != nil {
			// Headers are already sent; the short body tells the client.
			_ = c.Error(err)
			log.Warn().
				Str("path", loc.Path).
				Str("server", resp.Server.String()).
				Int64("sent", n).
				Uint32("summary_length", resp.SummaryLength).
				Err(err).
				Msg("summary body truncated")
		}
	}
}

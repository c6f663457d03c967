package httpx

import "github.com/gin-gonic/gin"

// Parse binds uri, query and, when present, the JSON body into req
func Parse(c *gin.Context, req interface{}) error {
	// uri and query binding fail on types without those tags; that is fine
	_ = c.ShouldBindUri(req)
	_ = c.ShouldBindQuery(req)

	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			return err
		}
	}
	return nil
}

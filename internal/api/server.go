package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v5"
)

// DefaultMaxBody caps request bodies, base64 payload included.
const DefaultMaxBody = 8 << 20

type Server struct {
	service *DecodeService
	maxBody int64
}

func NewServer(service *DecodeService) *Server {
	if service == nil {
		service = NewDecodeService(ServiceConfig{})
	}
	return &Server{service: service, maxBody: DefaultMaxBody}
}

// SetMaxBody overrides DefaultMaxBody; n <= 0 keeps the current limit.
func (s *Server) SetMaxBody(n int64) {
	if n > 0 {
		s.maxBody = n
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/decode", s.handleDecode)
	e.POST("/v1/size", s.handleSize)
	e.GET("/v1/profiles", s.handleProfiles)
}

func (s *Server) handleDecode(c *echo.Context) error {
	req, err := decodeJSON[DecodeRequest](s.body(c))
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	resp, err := s.service.Decode(c.Request().Context(), &req)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSize(c *echo.Context) error {
	req, err := decodeJSON[SizeRequest](s.body(c))
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	resp, err := s.service.Size(c.Request().Context(), &req)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleProfiles(c *echo.Context) error {
	return c.JSON(http.StatusOK, ProfileList{
		Object: "list",
		Data:   s.service.Profiles(),
	})
}

func (s *Server) body(c *echo.Context) io.Reader {
	return http.MaxBytesReader(c.Response(), c.Request().Body, s.maxBody)
}

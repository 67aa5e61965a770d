package http

import (
	"net/http"

	"parley/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
)

// ICEHandler hands the configured STUN/TURN servers to clients so both sides
// of a call negotiate against the same ICE infrastructure.
type ICEHandler struct {
	servers []webrtc.ICEServer
}

func NewICEHandler(servers []config.ICEServer) *ICEHandler {
	converted := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		ice := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			ice.Username = s.Username
			ice.Credential = s.Credential
			ice.CredentialType = webrtc.ICECredentialTypePassword
		}
		converted = append(converted, ice)
	}
	return &ICEHandler{servers: converted}
}

func (h *ICEHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/api/v1/ice", h.ICEServers)
}

func (h *ICEHandler) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.servers})
}

package handler

import (
	"errors"
	"net/http"

	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// authContext pulls the authenticated identity the middleware stashed on the
// gin context.
func authContext(c *gin.Context) (userID, tenantID uuid.UUID, role string, err error) {
	rawUser, _ := c.Get("userID")
	userStr, _ := rawUser.(string)
	userID, err = uuid.Parse(userStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", errors.New("invalid user identity in token")
	}

	rawTenant, _ := c.Get("tenantID")
	tenantStr, _ := rawTenant.(string)
	tenantID, err = uuid.Parse(tenantStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", errors.New("invalid tenant identity in token")
	}

	rawRole, _ := c.Get("userRole")
	role, _ = rawRole.(string)
	return userID, tenantID, role, nil
}

// respondError maps service errors onto HTTP statuses via their kind.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

func respondBadAuth(c *gin.Context, err error) {
	c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
}

// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/seakee/momo/app"
	"github.com/seakee/momo/app/pkg/e"
	apiJWT "github.com/seakee/momo/app/pkg/jwt"
)

type (
	// GetTokenReqParams is the request payload for token issuance.
	GetTokenReqParams struct {
		AppID     string `json:"app_id" form:"app_id" binding:"required"`
		AppSecret string `json:"app_secret" form:"app_secret" binding:"required"`
	}

	// GetTokenRepData is the response payload carrying the signed token.
	GetTokenRepData struct {
		Token string `json:"token"`
	}
)

// GetToken returns a Gin handler that issues JWTs for server apps.
//
// Returns:
//   - gin.HandlerFunc: request handler for token issuance.
//
// Behavior:
//   - Matches credentials against the configured server apps.
//   - Signs an HS256 token with the configured expiry on success.
func (h handler) GetToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var params *GetTokenReqParams
		var err error
		var data *GetTokenRepData

		errCode := e.InvalidParams

		if err = c.ShouldBindJSON(&params); err == nil {
			serverApp := h.find(params.AppID, params.AppSecret)
			errCode = e.ServerAppNotFound
			if serverApp != nil {
				var token string

				token, err = apiJWT.GenerateAppToken(serverApp, app.GetConfig().System.TokenExpire)
				errCode = e.ServerAuthorizationFail
				if err == nil {
					errCode = e.SUCCESS
					data = &GetTokenRepData{Token: token}
				}
			}
		}

		h.i18n.JSON(c, errCode, data, err)
	}
}

// find matches one configured server app by credential pair.
//
// Parameters:
//   - appID: app identifier from the request.
//   - appSecret: app secret from the request.
//
// Returns:
//   - *app.ServerApp: matched entry, nil when credentials are unknown.
func (h handler) find(appID, appSecret string) *app.ServerApp {
	for i := range h.apps {
		if h.apps[i].AppID == appID && h.apps[i].AppSecret == appSecret {
			return &h.apps[i]
		}
	}

	return nil
}

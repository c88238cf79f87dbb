// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/gradebook/internal/app/views"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

// msgUnreadableForm is shown when a posted value cannot be bound at all,
// for example letters in a numeric field.
const msgUnreadableForm = "The submitted form could not be read. Please check the values and try again."

func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Principal"] = middleware.CurrentPrincipal(ctx)
	ctx.HTML(status, name, data)
}

func renderForm(ctx *gin.Context, status int, form views.Form) {
	render(ctx, status, "form.html", gin.H{"Title": form.Title, "Form": form})
}

func renderConfirm(ctx *gin.Context, confirm views.Confirm) {
	render(ctx, http.StatusOK, "confirm.html", gin.H{"Title": confirm.Title, "Confirm": confirm})
}

// bind reads the posted form into dst
func bind(ctx *gin.Context, dst any) error {
	if err := ctx.ShouldBind(dst); err != nil {
		return apperrors.NewValidationError("", msgUnreadableForm)
	}
	return nil
}

// formFailed re-renders form with the field errors of a ValidationError and
// hands every other error to the error pages.
func formFailed(ctx *gin.Context, form views.Form, err error) {
	ve, ok := apperrors.AsValidation(err)
	if !ok {
		middleware.HandleError(ctx, err)
		return
	}
	form.Errors = ve.Map()
	form.Error = ve.For("")
	if form.Error == "" {
		form.Error = "Please correct the errors below."
	}
	renderForm(ctx, http.StatusBadRequest, form)
}

func redirect(ctx *gin.Context, location string) {
	ctx.Redirect(http.StatusFound, location)
}

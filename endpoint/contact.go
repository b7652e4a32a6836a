package endpoint

import (
	"net/http"

	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// ContactForm is the message posted to /contact.
type ContactForm struct {
	Name    string `form:"name" binding:"required"`
	Email   string `form:"email" binding:"required,email"`
	Message string `form:"message" binding:"required"`
}

const contactInvalidMessage = "Please fill in every field and use a valid email address."

// ContactPage shows the contact form.
func ContactPage(c *gin.Context) {
	render(c, http.StatusOK, "contact.html", gin.H{"Form": ContactForm{}})
}

// SubmitContact stores the message and redirects back to the form.
func SubmitContact(c *gin.Context) {
	form := ContactForm{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Message: c.PostForm("message"),
	}
	trimAll(&form.Name, &form.Email, &form.Message)
	if err := binding.Validator.ValidateStruct(&form); err != nil {
		middleware.AddFlash(c, middleware.FlashDanger, contactInvalidMessage)
		render(c, http.StatusBadRequest, "contact.html", gin.H{"Form": form})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	contact := model.Contact{Name: util.NormalizeName(form.Name), Email: form.Email, Message: form.Message}
	if err := model.CreateContact(db, &contact); err != nil {
		util.Logger().Error("contact insert failed", zap.Error(err))
		middleware.AddFlash(c, middleware.FlashDanger, retryMessage)
		render(c, http.StatusInternalServerError, "contact.html", gin.H{"Form": form})
		return
	}

	middleware.AddFlash(c, middleware.FlashSuccess, "Your message has been sent!")
	redirect(c, "/contact")
}

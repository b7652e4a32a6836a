package endpoint

import (
	"encoding/json"
	"net/http"

	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/ariebrainware/heart-risk/predictor"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// FormField is one input of the prediction form. Options holds the labels of
// a categorical column and is empty for numeric ones.
type FormField struct {
	Name    string
	Value   string
	Options []string
}

func formFields(meta *predictor.Metadata, value predictor.InputFunc) []FormField {
	columns := meta.Columns()
	fields := make([]FormField, 0, len(columns))
	for _, col := range columns {
		field := FormField{Name: col, Value: value(col)}
		if meta.IsCategorical(col) {
			field.Options = meta.Mappings[col].Labels()
		}
		fields = append(fields, field)
	}
	return fields
}

func renderHome(c *gin.Context, svc *predictor.Service, status int, value predictor.InputFunc, data gin.H) {
	meta := svc.Metadata()
	data["Fields"] = formFields(meta, value)
	if meta.Accuracy > 0 {
		data["Accuracy"] = meta.Accuracy * 100
	}
	render(c, status, "index.html", data)
}

func blank(string) string { return "" }

// HomeForm shows the empty prediction form.
func HomeForm(svc *predictor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderHome(c, svc, http.StatusOK, blank, gin.H{})
	}
}

// Predict classifies the submitted form and stores the result for the
// signed-in user. Invalid input never reaches the model.
func Predict(svc *predictor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := middleware.GetIdentity(c)
		if !ok {
			redirect(c, "/login")
			return
		}
		input := predictor.InputFunc(c.PostForm)
		log := util.Logger().With(zap.String("username", identity.Username))

		row, err := svc.Build(input)
		if err != nil {
			if predictor.IsValidationError(err) {
				renderHome(c, svc, http.StatusBadRequest, input, gin.H{"Error": sentence(err.Error())})
				return
			}
			log.Error("building feature row failed", zap.Error(err))
			renderHome(c, svc, http.StatusInternalServerError, input, gin.H{"Error": GenericErrorMessage})
			return
		}

		outcome, err := svc.Classify(row)
		if err != nil {
			log.Error("prediction failed", zap.Error(err))
			renderHome(c, svc, http.StatusInternalServerError, input, gin.H{"Error": GenericErrorMessage})
			return
		}

		data := gin.H{"Prediction": outcome.Message, "Proba": outcome.Probability}
		if err := savePrediction(c, identity.Username, row, outcome); err != nil {
			log.Error("prediction computed but not saved", zap.Int("label", outcome.Label), zap.Error(err))
			data["SaveError"] = SaveErrorMessage
		}
		renderHome(c, svc, http.StatusOK, input, data)
	}
}

func savePrediction(c *gin.Context, username string, row predictor.FeatureRow, outcome predictor.Outcome) error {
	db := middleware.GetDB(c)
	if db == nil {
		return errNoDatabase
	}
	inputs, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return model.CreatePrediction(db, &model.Prediction{
		Username:    username,
		Inputs:      datatypes.JSON(inputs),
		Prediction:  outcome.Message,
		Probability: outcome.Probability,
	})
}

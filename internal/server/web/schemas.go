package web

import (
	"context"
	"math"
	"regexp"
	"strconv"

	"github.com/dmitrijs2005/csemotors/internal/server/validation"
)

const (
	msgFirstName        = "Please provide a first name."
	msgLastName         = "Please provide a last name."
	msgEmailInvalid     = "A valid email is required."
	msgEmailRegistered  = "Email exists. Please log in or use a different email."
	msgEmailInUse       = "Email exists. Please use a different email."
	msgWeakPassword     = "Password does not meet requirements."
	msgLoginEmail       = "Please provide a valid email."
	msgPasswordRequired = "Password is required."
	msgAccountID        = "Account id is required."

	msgClassificationName  = "Please provide a classification name."
	msgClassificationChars = "Classification must contain only letters and numbers (no spaces or special characters)."
	msgChooseClass         = "Please choose a classification."
	msgMake                = "Please provide a make."
	msgMakeLength          = "Make must be at least 2 characters."
	msgModel               = "Please provide a model."
	msgDescription         = "Please provide a description."
	msgDescriptionLength   = "Description must be at least 10 characters."
	msgPrice               = "Please provide a price."
	msgPriceNumber         = "Price must be a valid number."
	msgYear                = "Please provide a year."
	msgYearRange           = "Please provide a valid 4-digit year."
	msgMiles               = "Please provide mileage."
	msgMilesNumber         = "Mileage must be a number."
	msgColor               = "Please provide a color."
)

var classificationNameRE = regexp.MustCompile(`^[A-Za-z0-9]+$`)

type schemas struct {
	register       validation.Schema
	login          validation.Schema
	updateInfo     validation.Schema
	updatePassword validation.Schema
	classification validation.Schema
	vehicle        validation.Schema
}

type emailChecker interface {
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
}

func newSchemas(accounts emailChecker) schemas {
	// free reports whether the address is unused, ignoring the account
	// named by the form's account_id
	free := func(ctx context.Context, email string, form validation.Values) (bool, error) {
		exceptID, err := form.Int("account_id")
		if err != nil {
			exceptID = 0
		}
		taken, err := accounts.EmailTaken(ctx, email, exceptID)
		if err != nil {
			return false, err
		}
		return !taken, nil
	}

	names := func() []*validation.Field {
		return []*validation.Field{
			validation.NewField("account_firstname").Trim().Escape().Required(msgFirstName),
			validation.NewField("account_lastname").Trim().Escape().Required(msgLastName),
		}
	}
	strongPassword := func() *validation.Field {
		return validation.NewField("account_password").Trim().
			Required(msgWeakPassword).
			StrongPassword(msgWeakPassword)
	}

	return schemas{
		register: validation.NewSchema(append(names(),
			validation.NewField("account_email").Trim().NormalizeEmail().
				Email(msgEmailInvalid).
				Check(free, msgEmailRegistered),
			strongPassword(),
		)...),
		login: validation.NewSchema(
			validation.NewField("account_email").Trim().Email(msgLoginEmail),
			validation.NewField("account_password").Trim().Required(msgPasswordRequired),
		),
		updateInfo: validation.NewSchema(append(names(),
			validation.NewField("account_email").Trim().NormalizeEmail().
				Email(msgEmailInvalid).
				Check(free, msgEmailInUse),
			validation.NewField("account_id").Trim().Required(msgAccountID),
		)...),
		updatePassword: validation.NewSchema(
			strongPassword(),
			validation.NewField("account_id").Trim().Required(msgAccountID),
		),
		classification: validation.NewSchema(
			validation.NewField("classification_name").Trim().
				Required(msgClassificationName).
				Matches(classificationNameRE, msgClassificationChars),
		),
		vehicle: validation.NewSchema(
			validation.NewField("classification_id").Trim().
				Required(msgChooseClass).
				IntRange(1, math.MaxInt64, msgChooseClass),
			validation.NewField("inv_make").Trim().Required(msgMake).MinLength(2, msgMakeLength),
			validation.NewField("inv_model").Trim().Required(msgModel),
			validation.NewField("inv_description").Trim().Required(msgDescription).MinLength(10, msgDescriptionLength),
			validation.NewField("inv_image").Trim(),
			validation.NewField("inv_thumbnail").Trim(),
			validation.NewField("inv_price").Trim().Required(msgPrice).FloatMin(0.01, msgPriceNumber),
			validation.NewField("inv_year").Trim().Required(msgYear).IntRange(1886, 2100, msgYearRange),
			validation.NewField("inv_miles").Trim().Required(msgMiles).IntRange(0, math.MaxInt32, msgMilesNumber),
			validation.NewField("inv_color").Trim().Required(msgColor),
		),
	}
}

// parseID reads a positive integer identifier.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

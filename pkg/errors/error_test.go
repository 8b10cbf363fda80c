package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeRuleFileNotFound, "no rule file for asset %s", "EURUSD")
	suite.NotNil(err)
	suite.Equal(ErrCodeRuleFileNotFound, err.Code)
	suite.Equal("no rule file for asset EURUSD", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataFileNotFound, "data file not found", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeDataFileNotFound, err.Code)
	suite.Equal("data file not found", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataFileNotFound, cause, "no time series for asset: %s", "BTCUSD")
	suite.NotNil(err)
	suite.Equal(ErrCodeDataFileNotFound, err.Code)
	suite.Equal("no time series for asset: BTCUSD", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeRuleFileNotFound, "rule file not found", cause)
	suite.Equal("[200] rule file not found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeRuleFileNotFound, "rule file not found", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeRuleFileNotFound, "rule file not found")
	err := Wrap(ErrCodeEmptyRuleSet, "empty rule set", cause)
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeEmptyRuleSet, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromPlainError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.True(HasCode(err, ErrCodeInvalidParameter))
	suite.False(HasCode(err, ErrCodeRuleFileNotFound))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeRuleFileNotFound, "rule file not found", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := Wrap(ErrCodeRuleFileNotFound, "rule file not found", errors.New("io error"))

	var target *Error
	suite.True(As(err, &target))
	suite.Equal(ErrCodeRuleFileNotFound, target.Code)
}

func (suite *ErrorTestSuite) TestInsufficientWindowError() {
	err := NewInsufficientWindowError(7, 4, "EURUSD", "window too short for lookback")
	suite.Equal("window too short for lookback", err.Error())
	suite.Equal(7, err.Required)
	suite.Equal(4, err.Actual)
	suite.Equal("EURUSD", err.Asset)
}

func (suite *ErrorTestSuite) TestInsufficientWindowErrorf() {
	err := NewInsufficientWindowErrorf(7, 4, "EURUSD", "need %d rows, have %d", 7, 4)
	suite.Equal("need 7 rows, have 4", err.Error())
}

func (suite *ErrorTestSuite) TestIsInsufficientWindowError() {
	err := NewInsufficientWindowError(7, 4, "EURUSD", "window too short")
	suite.True(IsInsufficientWindowError(err))
	suite.False(IsInsufficientWindowError(errors.New("other")))
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		input string
		want  GradingCompany
	}{
		{"BGS", CompanyBGS},
		{"beckett grading services", CompanyBGS},
		{"CGC Cards", CompanyCGC},
		{"PSA", CompanyPSA},
		{"Professional Sports Authenticator", CompanyPSA},
		{"", CompanyPSA},
		{"something else", CompanyPSA},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCompany(tt.input), "input %q", tt.input)
	}
}

func TestGradingCompany_Valid(t *testing.T) {
	assert.True(t, CompanyPSA.Valid())
	assert.True(t, CompanyBGS.Valid())
	assert.True(t, CompanyCGC.Valid())
	assert.False(t, GradingCompany("SGC").Valid())
	assert.False(t, GradingCompany("").Valid())
}

func TestClampGrade(t *testing.T) {
	assert.Equal(t, 1.0, ClampGrade(0))
	assert.Equal(t, 1.0, ClampGrade(-3))
	assert.Equal(t, 10.0, ClampGrade(11))
	assert.Equal(t, 9.5, ClampGrade(9.5))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.01, ClampConfidence(0))
	assert.Equal(t, 0.99, ClampConfidence(1.2))
	assert.Equal(t, 0.5, ClampConfidence(0.5))
}

func TestValidGrade(t *testing.T) {
	for grade := 1.0; grade <= 10; grade += 0.5 {
		assert.True(t, ValidGrade(grade), "grade %v", grade)
	}
	assert.False(t, ValidGrade(0.5))
	assert.False(t, ValidGrade(10.5))
	assert.False(t, ValidGrade(9.25))
}

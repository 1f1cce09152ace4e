package membership_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/stretchr/testify/require"
)

// TestAdminRequiresCredentials rejects anonymous, wrong-password and
// missing one-time-code requests.
func TestAdminRequiresCredentials(t *testing.T) {
	baseURL, cleanup := setupMembershipContainer(t)
	defer cleanup()

	_, err := membersdk.NewClient(baseURL).ListUsers(t.Context(), 0, 0)
	assertAPIError(t, err, http.StatusUnauthorized, membersdk.ErrorCodeUnauthorized)

	_, err = membersdk.NewClient(baseURL).WithAdmin(adminUsername, "wrong", "").ListUsers(t.Context(), 0, 0)
	assertAPIError(t, err, http.StatusUnauthorized, membersdk.ErrorCodeUnauthorized)

	_, err = membersdk.NewClient(baseURL).WithAdmin(adminUsername, adminPassword, "").ListUsers(t.Context(), 0, 0)
	assertAPIError(t, err, http.StatusUnauthorized, membersdk.ErrorCodeUnauthorized)

	_, err = adminClient(t, baseURL).ListUsers(t.Context(), 0, 0)
	require.NoError(t, err)
}

// TestAdminManagesMembers lists, deactivates, extends and re-sends links.
func TestAdminManagesMembers(t *testing.T) {
	baseURL, cleanup := setupMembershipContainer(t)
	defer cleanup()

	client := membersdk.NewClient(baseURL)
	admin := adminClient(t, baseURL)
	email := uniqueEmail("managed")

	postPaidOrder(t, client, 400001, email)

	var page *membersdk.UserPageResponse
	require.Eventually(t, func() bool {
		var err error
		page, err = admin.ListUsers(t.Context(), 1, 50)
		return err == nil && page.Total >= 1
	}, 10*time.Second, 100*time.Millisecond)

	var found *membersdk.UserResponse
	for i := range page.Users {
		if page.Users[i].Email == email {
			found = &page.Users[i]
		}
	}
	require.NotNil(t, found)
	require.Equal(t, "active", found.Status)
	require.Len(t, found.Memberships, 1)

	login(t, client, email)

	require.NoError(t, admin.DeactivateUser(t.Context(), email))
	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.False(t, me.Entitled)
	require.Equal(t, "inactive", me.Status)

	extended, err := admin.ExtendMembership(t.Context(), email)
	require.NoError(t, err)
	require.Equal(t, "active", extended.Status)
	me, err = client.Me(t.Context())
	require.NoError(t, err)
	require.True(t, me.Entitled)

	since := time.Now().Add(-time.Second)
	require.NoError(t, admin.ResendMagicLink(t.Context(), email))
	require.NotEmpty(t, awaitLoginSecret(t, client, email, since))

	err = admin.DeactivateUser(t.Context(), uniqueEmail("ghost"))
	assertAPIError(t, err, http.StatusNotFound, membersdk.ErrorCodeNotFound)
}

package web

// Minimal server-rendered pages. Styling and client behavior are out of
// scope; the forms post to the JSON-capable endpoints.

const registerPage = `<!DOCTYPE html>
<html>
<head><title>Register</title></head>
<body>
<h1>Register</h1>
<form method="POST" action="/register">
  <label>Name <input type="text" name="name"></label><br>
  <label>Email <input type="email" name="email"></label><br>
  <label>Username <input type="text" name="username"></label><br>
  <label>Password <input type="password" name="password"></label><br>
  <button type="submit">Register</button>
</form>
<p><a href="/login">Already have an account? Log in</a></p>
</body>
</html>
`

const loginPage = `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
<h1>Login</h1>
<form method="POST" action="/login">
  <label>Email or username <input type="text" name="loginId"></label><br>
  <label>Password <input type="password" name="password"></label><br>
  <button type="submit">Login</button>
</form>
<p><a href="/register">Need an account? Register</a></p>
</body>
</html>
`

const dashboardPage = `<!DOCTYPE html>
<html>
<head><title>Dashboard</title></head>
<body>
<h1>Dashboard</h1>
<p>Welcome, %s.</p>
<form method="POST" action="/logout"><button type="submit">Logout</button></form>
<form method="POST" action="/logout-out-from-all"><button type="submit">Logout everywhere</button></form>
</body>
</html>
`
